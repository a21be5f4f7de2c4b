/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// Error is the coded error type used on the wire and in delivery records.
// It carries the taxonomy code, a human-readable message, the wrapped inner
// error, and the stack captured at construction time.
type Error struct {
	Stack      []runtime.Frame
	InnerError error
	Code       string
	Message    string
}

// NewError creates an empty coded error with the current stack attached.
// Callers chain WithCode / WithMessage / WithError onto it.
func NewError() *Error {
	callers := make([]uintptr, 32)
	n := runtime.Callers(2, callers)
	frames := runtime.CallersFrames(callers[:n])
	var stack []runtime.Frame
	for {
		frame, more := frames.Next()
		stack = append(stack, frame)
		if !more {
			break
		}
	}
	return &Error{Stack: stack, Code: UnknownError}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.InnerError == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.InnerError)
}

// Unwrap exposes the inner error to errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.InnerError
}

// GetTopStackString returns the construction site as "file:line func".
func (e *Error) GetTopStackString() string {
	if len(e.Stack) == 0 {
		return ""
	}
	frame := e.Stack[0]
	funcName := frame.Function
	if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
		funcName = funcName[idx+1:]
	}
	return fmt.Sprintf("%s:%d %s", frame.File, frame.Line, funcName)
}

// WithCode sets the taxonomy code and returns the Error for chaining.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithMessage sets the message and returns the Error for chaining.
func (e *Error) WithMessage(message string) *Error {
	e.Message = message
	return e
}

// WithMessagef formats and sets the message and returns the Error for chaining.
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// WithError wraps the underlying error and returns the Error for chaining.
func (e *Error) WithError(err error) *Error {
	e.InnerError = err
	return e
}
