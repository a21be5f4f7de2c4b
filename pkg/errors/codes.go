/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package errors

import (
	"errors"
	"net/http"
)

// Taxonomy codes used on the wire and in delivery records.
const (
	BadRequest                = "BAD_REQUEST"
	SignatureTimestampExpired = "SIGNATURE_TIMESTAMP_EXPIRED"
	InvalidSignature          = "INVALID_SIGNATURE"
	InstanceNotFound          = "INSTANCE_NOT_FOUND"
	InstanceNotActive         = "INSTANCE_NOT_ACTIVE"
	NotFound                  = "NOT_FOUND"
	TokenSignFailed           = "TOKEN_SIGN_FAILED"
	JwksParseError            = "JWKS_PARSE_ERROR"
	RequestTimeout            = "REQUEST_TIMEOUT"
	RequestFailed             = "REQUEST_FAILED"
	UnacceptedResponse        = "UNACCEPTED_RESPONSE"
	QueueSendFailed           = "QUEUE_SEND_FAILED"
	RetryScheduleFailed       = "RETRY_SCHEDULE_FAILED"
	MaxAttemptsExceeded       = "MAX_ATTEMPTS_EXCEEDED"
	DlqReached                = "DLQ_REACHED"
	UnknownError              = "UNKNOWN_ERROR"
	InternalError             = "INTERNAL_ERROR"
)

var httpStatusByCode = map[string]int{
	BadRequest:                http.StatusBadRequest,
	SignatureTimestampExpired: http.StatusUnauthorized,
	InvalidSignature:          http.StatusUnauthorized,
	InstanceNotFound:          http.StatusNotFound,
	NotFound:                  http.StatusNotFound,
	JwksParseError:            http.StatusInternalServerError,
	InternalError:             http.StatusInternalServerError,
	UnknownError:              http.StatusInternalServerError,
}

// NewBadRequest creates a coded BAD_REQUEST error.
func NewBadRequest(message string) *Error {
	return NewError().WithCode(BadRequest).WithMessage(message)
}

// NewSignatureTimestampExpired creates a coded SIGNATURE_TIMESTAMP_EXPIRED error.
func NewSignatureTimestampExpired(message string) *Error {
	return NewError().WithCode(SignatureTimestampExpired).WithMessage(message)
}

// NewInvalidSignature creates a coded INVALID_SIGNATURE error.
func NewInvalidSignature(message string) *Error {
	return NewError().WithCode(InvalidSignature).WithMessage(message)
}

// NewInstanceNotFound creates a coded INSTANCE_NOT_FOUND error.
func NewInstanceNotFound(message string) *Error {
	return NewError().WithCode(InstanceNotFound).WithMessage(message)
}

// NewNotFound creates a coded NOT_FOUND error.
func NewNotFound(message string) *Error {
	return NewError().WithCode(NotFound).WithMessage(message)
}

// NewJwksParseError creates a coded JWKS_PARSE_ERROR error.
func NewJwksParseError(message string) *Error {
	return NewError().WithCode(JwksParseError).WithMessage(message)
}

// NewTokenSignFailed creates a coded TOKEN_SIGN_FAILED error.
func NewTokenSignFailed(message string) *Error {
	return NewError().WithCode(TokenSignFailed).WithMessage(message)
}

// NewInternalError creates a coded INTERNAL_ERROR error.
func NewInternalError(message string) *Error {
	return NewError().WithCode(InternalError).WithMessage(message)
}

// GetCode extracts the taxonomy code from err, falling back to UNKNOWN_ERROR
// for errors that do not carry one.
func GetCode(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return UnknownError
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}

// HTTPStatus maps err's taxonomy code to the HTTP status returned at the API
// edge. Codes without an explicit mapping are treated as internal errors.
func HTTPStatus(err error) int {
	if status, ok := httpStatusByCode[GetCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
