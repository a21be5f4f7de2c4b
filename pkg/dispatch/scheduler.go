/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	dbutils "github.com/NeutralPress/cloud/pkg/database/utils"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/metrics"
	"github.com/NeutralPress/cloud/pkg/queue"
	"github.com/NeutralPress/cloud/pkg/timeutil"
	"github.com/NeutralPress/cloud/pkg/types"
)

const (
	// tickSpec fires once per minute, the scheduling granularity.
	tickSpec = "* * * * *"

	// maintenanceMinute is the UTC minute on which housekeeping runs.
	maintenanceMinute = 13
)

// Scheduler scans due instances every minute, reserves dispatch slots and
// enqueues trigger deliveries.
type Scheduler struct {
	store    dbclient.Interface
	provider queue.Provider
	maint    *Maintenance
	cron     *cron.Cron
}

// NewScheduler builds the minute-cron scheduler over the store and the main
// dispatch queue.
func NewScheduler(store dbclient.Interface, provider queue.Provider) *Scheduler {
	return &Scheduler{
		store:    store,
		provider: provider,
		maint:    NewMaintenance(store),
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the per-minute tick and launches the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(tickSpec, s.onTick); err != nil {
		return err
	}
	s.cron.Start()
	klog.Infof("scheduler started, spec: %q", tickSpec)
	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	klog.Info("scheduler stopped")
}

func (s *Scheduler) onTick() {
	tickTime := time.Now().UTC()
	ctx := context.Background()
	enqueued := s.Tick(ctx, tickTime)
	if enqueued > 0 {
		klog.Infof("scheduler tick enqueued %d deliveries", enqueued)
	}
	if tickTime.Minute() == maintenanceMinute {
		s.maint.Run(ctx, tickTime)
	}
}

// Tick runs one scheduling pass and returns the number of deliveries
// enqueued. Instances that cannot get a slot stay due and are retried on the
// next tick.
func (s *Scheduler) Tick(ctx context.Context, tickTime time.Time) int {
	batchLimit := commonconfig.GetScheduleBatchLimit()
	scanCap := commonconfig.GetMaxScheduleScanPerTick()
	maxPerMinute := commonconfig.GetMaxDispatchPerMinute()
	lookahead := commonconfig.GetMaxSlotLookaheadMinutes()

	totalEnqueued := 0
	for totalEnqueued < scanCap {
		due, err := s.store.SelectDueInstances(ctx, time.Now().UTC(), batchLimit)
		if err != nil {
			klog.ErrorS(err, "failed to select due instances")
			return totalEnqueued
		}
		if len(due) == 0 {
			return totalEnqueued
		}
		advanced := 0
		for _, inst := range due {
			if totalEnqueued >= scanCap {
				break
			}
			reserved, enqueued := s.scheduleOne(ctx, inst, tickTime, maxPerMinute, lookahead)
			if !reserved {
				// No slot in the look-ahead window; the row stays due and is
				// retried on the next tick.
				continue
			}
			if enqueued {
				totalEnqueued++
			}
			if err = s.store.UpdateInstanceNextRun(ctx, inst.InstanceId,
				timeutil.ComputeNextRunAt(inst.MinuteOfDay, tickTime)); err != nil {
				klog.ErrorS(err, "failed to advance next_run_at", "instanceId", inst.InstanceId)
			} else {
				advanced++
			}
		}
		// Nothing moved forward, bail out instead of re-reading the same rows.
		if advanced == 0 {
			return totalEnqueued
		}
	}
	return totalEnqueued
}

// scheduleOne reserves a slot for the instance and enqueues one delivery.
// reserved reports whether a slot was taken (and the row should advance);
// enqueued reports whether a message reached the queue.
func (s *Scheduler) scheduleOne(ctx context.Context, inst *dbclient.Instance,
	tickTime time.Time, maxPerMinute, lookahead int) (reserved, enqueued bool) {
	slot, err := s.store.ReserveSlot(ctx, tickTime, dbclient.SlotSourceScheduled, maxPerMinute, lookahead)
	if err != nil {
		klog.ErrorS(err, "failed to reserve dispatch slot", "instanceId", inst.InstanceId)
		metrics.SlotReservations.Inc(dbclient.SlotSourceScheduled, "error")
		metrics.SchedulerEnqueued.Inc("slot_error")
		return false, false
	}
	if slot == nil {
		metrics.SlotReservations.Inc(dbclient.SlotSourceScheduled, "full")
		metrics.SchedulerEnqueued.Inc("slot_full")
		klog.V(2).Infof("no dispatch slot within look-ahead for instance %s", inst.InstanceId)
		return false, false
	}
	metrics.SlotReservations.Inc(dbclient.SlotSourceScheduled, "reserved")

	now := time.Now().UTC()
	deliveryId := uuid.NewString()
	delivery := &dbclient.Delivery{
		Id:           deliveryId,
		InstanceId:   inst.InstanceId,
		SiteId:       inst.SiteId,
		ScheduledFor: dbutils.NullTime(slot.MinuteStart),
		EnqueuedAt:   dbutils.NullTime(now),
		Status:       dbclient.DeliveryStatusQueued,
		CreatedAt:    dbutils.NullTime(now),
		UpdatedAt:    dbutils.NullTime(now),
	}
	if err = s.store.InsertDelivery(ctx, delivery); err != nil {
		klog.ErrorS(err, "failed to insert delivery", "instanceId", inst.InstanceId)
		metrics.SchedulerEnqueued.Inc("store_error")
		return true, false
	}

	msg := &types.DispatchMessage{
		DeliveryId:      deliveryId,
		InstanceId:      inst.InstanceId,
		SiteId:          inst.SiteId,
		SiteUrl:         inst.SiteUrl.String,
		ScheduledFor:    timeutil.FormatRFC3339(slot.MinuteStart),
		EnqueuedAt:      timeutil.FormatRFC3339(now),
		DispatchAttempt: 1,
	}
	delay := timeutil.CeilSecondsUntil(slot.MinuteStart, now)
	if _, err = s.provider.SendMessage(ctx, msg, delay); err != nil {
		klog.ErrorS(err, "failed to enqueue dispatch message", "deliveryId", deliveryId)
		s.buryUnqueued(ctx, deliveryId, err)
		metrics.SchedulerEnqueued.Inc("queue_error")
		return true, false
	}
	metrics.SchedulerEnqueued.Inc("enqueued")
	return true, true
}

// buryUnqueued walks a delivery that never reached the queue through failed
// into dead so it cannot linger as a queued orphan.
func (s *Scheduler) buryUnqueued(ctx context.Context, deliveryId string, cause error) {
	message := cause.Error()
	if err := s.store.MarkDeliveryFailed(ctx, deliveryId, 0, nil,
		commonerrors.QueueSendFailed, message); err != nil {
		klog.ErrorS(err, "failed to mark unqueued delivery failed", "deliveryId", deliveryId)
	}
	metrics.DeliveryTransitions.Inc(dbclient.DeliveryStatusFailed, commonerrors.QueueSendFailed)
	if err := s.store.MarkDeliveryDead(ctx, deliveryId, 0, nil,
		commonerrors.QueueSendFailed, message, time.Now().UTC()); err != nil {
		klog.ErrorS(err, "failed to mark unqueued delivery dead", "deliveryId", deliveryId)
	}
	metrics.DeliveryTransitions.Inc(dbclient.DeliveryStatusDead, commonerrors.QueueSendFailed)
}
