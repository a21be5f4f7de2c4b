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
	TPCloudSigningKey = "cloud_signing_keys"
)

// UpsertSigningKey records the lifecycle state of one cloud signing key. Key
// material never enters the table, only the public JWK and its status.
func (c *Client) UpsertSigningKey(ctx context.Context, key *CloudSigningKey) error {
	if key == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	gormDb, err := c.getGorm()
	if err != nil {
		return err
	}
	result := gormDb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kid"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "public_jwk", "retire_at", "updated_at"}),
	}).Create(key)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert signing key to db: %v", result.Error)
	}
	return nil
}

// ListSigningKeys returns all signing-key bookkeeping rows.
func (c *Client) ListSigningKeys(ctx context.Context) ([]*CloudSigningKey, error) {
	gormDb, err := c.getGorm()
	if err != nil {
		return nil, err
	}
	var keys []*CloudSigningKey
	result := gormDb.WithContext(ctx).Order("created_at " + ASC).Find(&keys)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list signing keys: %v", result.Error)
	}
	return keys, nil
}

// RetireGraceKeys flips grace keys whose retire_at has passed to retired and
// returns how many rows changed.
func (c *Client) RetireGraceKeys(ctx context.Context, now time.Time) (int64, error) {
	gormDb, err := c.getGorm()
	if err != nil {
		return 0, err
	}
	result := gormDb.WithContext(ctx).Model(&CloudSigningKey{}).
		Where("status = ? AND retire_at IS NOT NULL AND retire_at <= ?", SigningKeyStatusGrace, now.UTC()).
		Updates(map[string]interface{}{
			"status":     SigningKeyStatusRetired,
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to retire grace keys: %v", result.Error)
	}
	return result.RowsAffected, nil
}
