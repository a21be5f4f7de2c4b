/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package timeutil

import (
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestComputeNextRunAt(t *testing.T) {
	after, err := time.Parse(time.RFC3339, "2026-03-08T12:29:10Z")
	assert.NilError(t, err)

	// 12:30 is later the same day.
	next := ComputeNextRunAt(750, after)
	assert.Equal(t, next.Format(time.RFC3339), "2026-03-08T12:30:00Z")

	// 12:29 already started, so the next run is tomorrow.
	next = ComputeNextRunAt(749, after)
	assert.Equal(t, next.Format(time.RFC3339), "2026-03-09T12:29:00Z")

	// Exactly at the boundary instant must be strictly greater.
	boundary, err := time.Parse(time.RFC3339, "2026-03-08T12:30:00Z")
	assert.NilError(t, err)
	next = ComputeNextRunAt(750, boundary)
	assert.Equal(t, next.Format(time.RFC3339), "2026-03-09T12:30:00Z")

	// Midnight slot.
	next = ComputeNextRunAt(0, after)
	assert.Equal(t, next.Format(time.RFC3339), "2026-03-09T00:00:00Z")
}

func TestComputeNextRunAtAlwaysFuture(t *testing.T) {
	after := time.Now()
	for _, minute := range []int{0, 1, 719, 720, 1439} {
		next := ComputeNextRunAt(minute, after)
		assert.Assert(t, next.After(after))
		assert.Equal(t, next.UTC().Hour(), minute/60)
		assert.Equal(t, next.UTC().Minute(), minute%60)
		assert.Equal(t, next.UTC().Second(), 0)
	}
}

func TestFloorToMinute(t *testing.T) {
	in, err := time.Parse(time.RFC3339, "2026-03-08T12:29:59.999Z")
	assert.NilError(t, err)
	assert.Equal(t, FloorToMinute(in).Format(time.RFC3339), "2026-03-08T12:29:00Z")

	exact, err := time.Parse(time.RFC3339, "2026-03-08T12:29:00Z")
	assert.NilError(t, err)
	assert.Equal(t, FloorToMinute(exact), exact)
}

func TestCeilSecondsUntil(t *testing.T) {
	now, err := time.Parse(time.RFC3339, "2026-03-08T12:29:00Z")
	assert.NilError(t, err)

	assert.Equal(t, CeilSecondsUntil(now.Add(59*time.Second+time.Millisecond), now), int64(60))
	assert.Equal(t, CeilSecondsUntil(now.Add(time.Minute), now), int64(60))
	assert.Equal(t, CeilSecondsUntil(now, now), int64(0))
	assert.Equal(t, CeilSecondsUntil(now.Add(-time.Minute), now), int64(0))
}

func TestFormatParseRFC3339(t *testing.T) {
	assert.Equal(t, FormatRFC3339(time.Time{}), "")

	in, err := time.Parse(time.RFC3339, "2026-03-08T12:29:00Z")
	assert.NilError(t, err)
	assert.Equal(t, FormatRFC3339(in), "2026-03-08T12:29:00Z")

	parsed, err := ParseRFC3339("2026-03-08T12:29:00.123Z")
	assert.NilError(t, err)
	assert.Equal(t, parsed.Format(time.RFC3339), "2026-03-08T12:29:00Z")

	_, err = ParseRFC3339("not a timestamp")
	assert.Assert(t, err != nil)
}
