/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"
	"time"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
)

const (
	TPTelemetrySample = "telemetry_samples"
	TPTelemetryHourly = "telemetry_hourly"
)

var (
	insertTelemetrySampleFormat = `INSERT INTO ` + TPTelemetrySample + ` (%s) VALUES (%s)
	ON CONFLICT (delivery_id) DO NOTHING;`

	deleteTelemetrySamplesCmd = `DELETE FROM ` + TPTelemetrySample + ` WHERE collected_at < $1;`

	// rebuildTelemetryHourlyCmd folds raw samples newer than the cutoff into
	// per-instance hour buckets with avg/max/sum roll-ups.
	rebuildTelemetryHourlyCmd = `INSERT INTO ` + TPTelemetryHourly + `
		(instance_id, bucket_hour, sample_count, accepted_count, avg_verify_ms,
		 max_verify_ms, sum_items_verified, sum_items_failed, updated_at)
	SELECT
		instance_id,
		date_trunc('hour', collected_at) AS bucket_hour,
		count(*),
		count(*) FILTER (WHERE accepted = 1),
		coalesce(avg(verify_ms), 0),
		coalesce(max(verify_ms), 0),
		coalesce(sum(items_verified), 0),
		coalesce(sum(items_failed), 0),
		now()
	FROM ` + TPTelemetrySample + `
	WHERE collected_at >= $1
	GROUP BY instance_id, date_trunc('hour', collected_at)
	ON CONFLICT (instance_id, bucket_hour) DO UPDATE SET
		sample_count       = EXCLUDED.sample_count,
		accepted_count     = EXCLUDED.accepted_count,
		avg_verify_ms      = EXCLUDED.avg_verify_ms,
		max_verify_ms      = EXCLUDED.max_verify_ms,
		sum_items_verified = EXCLUDED.sum_items_verified,
		sum_items_failed   = EXCLUDED.sum_items_failed,
		updated_at         = now();`
)

// InsertTelemetrySample persists one parsed sample. A replayed delivery id is
// a no-op, which keeps telemetry insertion idempotent per delivery.
func (c *Client) InsertTelemetrySample(ctx context.Context, s *TelemetrySample) error {
	if s == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, generateCommand(*s, insertTelemetrySampleFormat, ""), s)
	if err != nil {
		return fmt.Errorf("failed to insert telemetry sample to db: %v", err)
	}
	return nil
}

// DeleteTelemetrySamplesBefore prunes raw samples older than the cutoff.
func (c *Client) DeleteTelemetrySamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	result, err := db.ExecContext(ctx, deleteTelemetrySamplesCmd, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete telemetry samples: %v", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// RebuildTelemetryHourly upserts hourly roll-ups from raw samples collected
// at or after the cutoff.
func (c *Client) RebuildTelemetryHourly(ctx context.Context, since time.Time) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, rebuildTelemetryHourlyCmd, since.UTC())
	if err != nil {
		return fmt.Errorf("failed to rebuild telemetry hourly: %v", err)
	}
	return nil
}

// DeleteTelemetryHourlyBefore prunes hourly roll-ups older than the cutoff.
func (c *Client) DeleteTelemetryHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	gormDb, err := c.getGorm()
	if err != nil {
		return 0, err
	}
	result := gormDb.WithContext(ctx).Where("bucket_hour < ?", cutoff.UTC()).Delete(&TelemetryHourly{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete telemetry hourly rows: %v", result.Error)
	}
	return result.RowsAffected, nil
}

// ListTelemetryHourly returns the roll-ups of an instance ordered by bucket
// hour descending.
func (c *Client) ListTelemetryHourly(ctx context.Context, instanceId string, limit int) ([]*TelemetryHourly, error) {
	gormDb, err := c.getGorm()
	if err != nil {
		return nil, err
	}
	var rows []*TelemetryHourly
	result := gormDb.WithContext(ctx).
		Where("instance_id = ?", instanceId).
		Order("bucket_hour " + DESC).
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list telemetry hourly rows: %v", result.Error)
	}
	return rows, nil
}
