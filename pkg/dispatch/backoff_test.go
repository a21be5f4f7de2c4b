/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackoffSeconds(t *testing.T) {
	assert.Equal(t, int64(30), BackoffSeconds(1))
	assert.Equal(t, int64(60), BackoffSeconds(2))
	assert.Equal(t, int64(120), BackoffSeconds(3))
	assert.Equal(t, int64(240), BackoffSeconds(4))
	assert.Equal(t, int64(480), BackoffSeconds(5))
	assert.Equal(t, int64(900), BackoffSeconds(6))
	assert.Equal(t, int64(900), BackoffSeconds(10))
	assert.Equal(t, int64(900), BackoffSeconds(60))
}

func TestBackoffSecondsClampsAttempt(t *testing.T) {
	assert.Equal(t, int64(30), BackoffSeconds(0))
	assert.Equal(t, int64(30), BackoffSeconds(-3))
}
