/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package timeutil

import (
	"math"
	"time"
)

const (
	// MinutesPerDay is the number of schedulable minute-of-day slots.
	MinutesPerDay = 24 * 60
)

// FormatRFC3339 formats t as an ISO-8601 UTC string with a trailing Z.
// The zero time formats as the empty string.
func FormatRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ParseRFC3339 parses an ISO-8601 timestamp, with or without fractional
// seconds, and returns it in UTC.
func ParseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FloorToMinute truncates t to the start of its UTC minute.
func FloorToMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// CeilSecondsUntil returns the whole seconds from now until target, rounded
// up, never negative.
func CeilSecondsUntil(target, now time.Time) int64 {
	d := target.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()))
}

// ComputeNextRunAt returns the next UTC instant strictly after `after` whose
// wall clock reads minuteOfDay/60 hours and minuteOfDay%60 minutes.
func ComputeNextRunAt(minuteOfDay int, after time.Time) time.Time {
	u := after.UTC()
	candidate := time.Date(u.Year(), u.Month(), u.Day(),
		minuteOfDay/60, minuteOfDay%60, 0, 0, time.UTC)
	if !candidate.After(u) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
