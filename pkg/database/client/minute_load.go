/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/timeutil"
)

const (
	TPDispatchMinuteLoad = "dispatch_minute_load"
)

var (
	reserveSlotCmd = `INSERT INTO ` + TPDispatchMinuteLoad + `
		(minute_start, scheduled_count, retry_count, total_count, created_at, updated_at)
	VALUES ($1, $2, $3, 1, now(), now())
	ON CONFLICT (minute_start) DO UPDATE SET
		scheduled_count = ` + TPDispatchMinuteLoad + `.scheduled_count + $2,
		retry_count     = ` + TPDispatchMinuteLoad + `.retry_count + $3,
		total_count     = ` + TPDispatchMinuteLoad + `.total_count + 1,
		updated_at      = now()
	WHERE ` + TPDispatchMinuteLoad + `.total_count < $4
	RETURNING minute_start, scheduled_count, retry_count, total_count;`

	deleteMinuteLoadCmd = `DELETE FROM ` + TPDispatchMinuteLoad + ` WHERE minute_start < $1;`
)

// SlotReservation is the outcome of a successful per-minute reservation.
type SlotReservation struct {
	MinuteStart    time.Time `db:"minute_start"`
	ScheduledCount int       `db:"scheduled_count"`
	RetryCount     int       `db:"retry_count"`
	TotalCount     int       `db:"total_count"`
	// MinuteOffset is how many minutes past the preferred minute the
	// reservation landed.
	MinuteOffset int
}

// ReserveSlot reserves dispatch capacity in the minute bucket of preferredAt,
// walking forward up to lookaheadMinutes additional minutes when a bucket is
// full. The per-bucket increment is a single atomic upsert guarded by the
// quota, so concurrent reservers share the minute budget without a separate
// lock. A nil reservation with a nil error means every candidate minute was
// full.
func (c *Client) ReserveSlot(ctx context.Context, preferredAt time.Time, source string,
	maxPerMinute, lookaheadMinutes int) (*SlotReservation, error) {
	if maxPerMinute <= 0 {
		return nil, commonerrors.NewBadRequest("maxPerMinute must be positive")
	}
	schedInc, retryInc := 0, 1
	if source == SlotSourceScheduled {
		schedInc, retryInc = 1, 0
	} else if source != SlotSourceRetry {
		return nil, commonerrors.NewBadRequest(fmt.Sprintf("unknown slot source %q", source))
	}
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	base := timeutil.FloorToMinute(preferredAt.UTC())
	for offset := 0; offset <= lookaheadMinutes; offset++ {
		minute := base.Add(time.Duration(offset) * time.Minute)
		var reservation SlotReservation
		err = db.GetContext(ctx, &reservation, reserveSlotCmd, minute, schedInc, retryInc, maxPerMinute)
		if errors.Is(err, sql.ErrNoRows) {
			// Bucket full, try the next minute.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to reserve dispatch slot: %v", err)
		}
		reservation.MinuteOffset = offset
		return &reservation, nil
	}
	return nil, nil
}

// DeleteMinuteLoadBefore trims minute-load buckets older than the cutoff and
// returns the number of rows removed.
func (c *Client) DeleteMinuteLoadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	result, err := db.ExecContext(ctx, deleteMinuteLoadCmd, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete minute load rows: %v", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
