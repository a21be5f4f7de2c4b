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

	sqrl "github.com/Masterminds/squirrel"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
)

const (
	TPInstance = "instances"
)

var (
	insertInstanceFormat = `INSERT INTO ` + TPInstance + ` (%s) VALUES (%s);`

	updateInstanceOnSyncCmd = `UPDATE ` + TPInstance + ` SET
		site_url = :site_url,
		status = :status,
		pending_reason = :pending_reason,
		site_key_alg = :site_key_alg,
		next_run_at = :next_run_at,
		last_seen_at = :last_seen_at,
		app_version = :app_version,
		build_id = :build_id,
		"commit" = :commit,
		built_at = :built_at,
		updated_at = :updated_at
	WHERE site_id = :site_id;`

	deregisterInstanceCmd = `UPDATE ` + TPInstance + ` SET
		status = $2,
		pending_reason = $3,
		next_run_at = NULL,
		updated_at = $4
	WHERE site_id = $1;`

	updateInstanceNextRunCmd = `UPDATE ` + TPInstance + ` SET
		next_run_at = $2,
		updated_at = $3
	WHERE instance_id = $1;`

	updateInstanceLastSuccessCmd = `UPDATE ` + TPInstance + ` SET
		last_success_at = $2,
		updated_at = $3
	WHERE instance_id = $1;`
)

// InsertInstance inserts a freshly registered instance.
func (c *Client) InsertInstance(ctx context.Context, inst *Instance) error {
	if inst == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, generateCommand(*inst, insertInstanceFormat, "id"), inst)
	if err != nil {
		return fmt.Errorf("failed to insert instance to db: %v", err)
	}
	return nil
}

// GetInstanceBySiteId returns the instance registered under siteId, or nil
// when no row exists.
func (c *Client) GetInstanceBySiteId(ctx context.Context, siteId string) (*Instance, error) {
	return c.getInstance(ctx, sqrl.Eq{"site_id": siteId})
}

// GetInstanceByInstanceId returns the instance by its generated id, or nil
// when no row exists.
func (c *Client) GetInstanceByInstanceId(ctx context.Context, instanceId string) (*Instance, error) {
	return c.getInstance(ctx, sqrl.Eq{"instance_id": instanceId})
}

func (c *Client) getInstance(ctx context.Context, query sqrl.Sqlizer) (*Instance, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(TPInstance).Where(query)
	cmd, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select instance query: %v", err)
	}
	var inst Instance
	err = db.GetContext(ctx, &inst, cmd, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select instance from db: %v", err)
	}
	return &inst, nil
}

// UpdateInstanceOnSync refreshes the mutable sync fields of an existing
// instance. The pinned site_pub_key and minute_of_day are never touched.
func (c *Client) UpdateInstanceOnSync(ctx context.Context, inst *Instance) error {
	if inst == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, updateInstanceOnSyncCmd, inst)
	if err != nil {
		return fmt.Errorf("failed to update instance in db: %v", err)
	}
	return nil
}

// DeregisterInstance disables the instance and clears its next run.
func (c *Client) DeregisterInstance(ctx context.Context, siteId, reason string, now time.Time) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, deregisterInstanceCmd, siteId, InstanceStatusDisabled, reason, now.UTC())
	if err != nil {
		return fmt.Errorf("failed to deregister instance in db: %v", err)
	}
	return nil
}

// SelectDueInstances returns up to limit schedulable instances whose
// next_run_at has passed, ordered by next_run_at ascending.
func (c *Client) SelectDueInstances(ctx context.Context, now time.Time, limit int) ([]*Instance, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(TPInstance).
		Where(sqrl.Eq{"status": InstanceStatusActive}).
		Where("pending_reason IS NULL").
		Where("site_url IS NOT NULL").
		Where(sqrl.LtOrEq{"next_run_at": now.UTC()}).
		OrderBy("next_run_at " + ASC).
		Limit(uint64(limit))
	cmd, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select due instances query: %v", err)
	}
	var instances []*Instance
	err = db.SelectContext(ctx, &instances, cmd, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select due instances from db: %v", err)
	}
	return instances, nil
}

// UpdateInstanceNextRun advances the instance's next scheduled run.
func (c *Client) UpdateInstanceNextRun(ctx context.Context, instanceId string, nextRunAt time.Time) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, updateInstanceNextRunCmd, instanceId, nextRunAt.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update instance next_run_at in db: %v", err)
	}
	return nil
}

// UpdateInstanceLastSuccess records a successful delivery for the instance.
func (c *Client) UpdateInstanceLastSuccess(ctx context.Context, instanceId string, at time.Time) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, updateInstanceLastSuccessCmd, instanceId, at.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update instance last_success_at in db: %v", err)
	}
	return nil
}
