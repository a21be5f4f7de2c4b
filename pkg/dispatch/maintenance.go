/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dispatch

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
)

// Maintenance prunes aged rows and rebuilds the recent hourly roll-ups.
type Maintenance struct {
	store dbclient.Interface
}

// NewMaintenance builds the housekeeping runner.
func NewMaintenance(store dbclient.Interface) *Maintenance {
	return &Maintenance{store: store}
}

// Run executes one housekeeping pass. Each step is independent; a failing
// step is logged and the rest still run.
func (m *Maintenance) Run(ctx context.Context, now time.Time) {
	now = now.UTC()
	start := time.Now()

	rawCutoff := now.AddDate(0, 0, -commonconfig.GetMaintenanceRawSampleDays())
	if n, err := m.store.DeleteTelemetrySamplesBefore(ctx, rawCutoff); err != nil {
		klog.ErrorS(err, "maintenance: failed to prune telemetry samples")
	} else if n > 0 {
		klog.Infof("maintenance: pruned %d telemetry samples", n)
	}

	hourlyCutoff := now.AddDate(0, 0, -commonconfig.GetMaintenanceHourlyDays())
	if n, err := m.store.DeleteTelemetryHourlyBefore(ctx, hourlyCutoff); err != nil {
		klog.ErrorS(err, "maintenance: failed to prune hourly aggregates")
	} else if n > 0 {
		klog.Infof("maintenance: pruned %d hourly aggregates", n)
	}

	buildCutoff := now.AddDate(0, 0, -commonconfig.GetMaintenanceBuildEventDays())
	if n, err := m.store.DeleteBuildEventsBefore(ctx, buildCutoff); err != nil {
		klog.ErrorS(err, "maintenance: failed to prune build events")
	} else if n > 0 {
		klog.Infof("maintenance: pruned %d build events", n)
	}

	aggregateSince := now.Add(-time.Duration(commonconfig.GetMaintenanceAggregateHours()) * time.Hour)
	if err := m.store.RebuildTelemetryHourly(ctx, aggregateSince); err != nil {
		klog.ErrorS(err, "maintenance: failed to rebuild hourly aggregates")
	}

	loadCutoff := now.Add(-time.Duration(commonconfig.GetMinuteLoadRetentionHours()) * time.Hour)
	if n, err := m.store.DeleteMinuteLoadBefore(ctx, loadCutoff); err != nil {
		klog.ErrorS(err, "maintenance: failed to trim minute load buckets")
	} else if n > 0 {
		klog.Infof("maintenance: trimmed %d minute load buckets", n)
	}

	if n, err := m.store.RetireGraceKeys(ctx, now); err != nil {
		klog.ErrorS(err, "maintenance: failed to retire grace signing keys")
	} else if n > 0 {
		klog.Infof("maintenance: retired %d grace signing keys", n)
	}

	klog.Infof("maintenance finished in %s", time.Since(start).Round(time.Millisecond))
}
