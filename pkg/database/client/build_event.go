/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
)

const (
	TPBuildEvent = "build_events"
)

// InsertBuildEvent records one build observation per sync. A repeated
// (instance_id, idempotency_key) pair is silently ignored so sync stays
// idempotent on this table.
func (c *Client) InsertBuildEvent(ctx context.Context, event *BuildEvent) error {
	if event == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	gormDb, err := c.getGorm()
	if err != nil {
		return err
	}
	result := gormDb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}, {Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return fmt.Errorf("failed to insert build event to db: %v", result.Error)
	}
	return nil
}

// DeleteBuildEventsBefore prunes build events older than the cutoff.
func (c *Client) DeleteBuildEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	gormDb, err := c.getGorm()
	if err != nil {
		return 0, err
	}
	result := gormDb.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&BuildEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete build events: %v", result.Error)
	}
	return result.RowsAffected, nil
}

// ListBuildEvents returns the most recent build events of an instance.
func (c *Client) ListBuildEvents(ctx context.Context, instanceId string, limit int) ([]*BuildEvent, error) {
	gormDb, err := c.getGorm()
	if err != nil {
		return nil, err
	}
	var events []*BuildEvent
	result := gormDb.WithContext(ctx).
		Where("instance_id = ?", instanceId).
		Order("created_at " + DESC).
		Limit(limit).
		Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list build events: %v", result.Error)
	}
	return events, nil
}
