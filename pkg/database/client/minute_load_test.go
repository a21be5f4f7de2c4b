/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestReserveSlotInvalidQuota(t *testing.T) {
	client := &Client{}

	_, err := client.ReserveSlot(context.Background(), time.Now(), SlotSourceScheduled, 0, 5)
	assert.ErrorContains(t, err, "must be positive")
}

func TestReserveSlotUnknownSource(t *testing.T) {
	client := &Client{}

	_, err := client.ReserveSlot(context.Background(), time.Now(), "bogus", 60, 5)
	assert.ErrorContains(t, err, "unknown slot source")
}

func TestReserveSlotNoDBConnection(t *testing.T) {
	client := &Client{}

	_, err := client.ReserveSlot(context.Background(), time.Now(), SlotSourceRetry, 60, 5)
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestDeleteMinuteLoadBeforeNoDBConnection(t *testing.T) {
	client := &Client{}

	_, err := client.DeleteMinuteLoadBefore(context.Background(), time.Now())
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestTPDispatchMinuteLoadConstant(t *testing.T) {
	assert.Equal(t, TPDispatchMinuteLoad, "dispatch_minute_load")
}

func TestReserveSlotCmdShape(t *testing.T) {
	assert.Assert(t, strings.Contains(reserveSlotCmd, "ON CONFLICT (minute_start) DO UPDATE SET"))
	assert.Assert(t, strings.Contains(reserveSlotCmd, "WHERE dispatch_minute_load.total_count < $4"))
	assert.Assert(t, strings.Contains(reserveSlotCmd,
		"RETURNING minute_start, scheduled_count, retry_count, total_count"))
}
