/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dispatch

const (
	backoffBaseSeconds = 30
	backoffCapSeconds  = 900
)

// BackoffSeconds returns the retry delay for the given attempt number,
// doubling from 30s and capped at 900s. Attempt numbers below 1 are treated
// as 1.
func BackoffSeconds(attemptNo int) int64 {
	if attemptNo < 1 {
		attemptNo = 1
	}
	seconds := int64(backoffBaseSeconds)
	for i := 1; i < attemptNo; i++ {
		seconds *= 2
		if seconds >= backoffCapSeconds {
			return backoffCapSeconds
		}
	}
	return seconds
}
