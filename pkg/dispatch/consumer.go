/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"k8s.io/klog/v2"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/metrics"
	"github.com/NeutralPress/cloud/pkg/queue"
	"github.com/NeutralPress/cloud/pkg/timeutil"
	"github.com/NeutralPress/cloud/pkg/types"
)

// Consumer long-polls one queue and drives the delivery state machine.
// Retries never lean on broker redelivery: a failed dispatch is re-enqueued
// explicitly with backoff so the minute-load budget stays enforced.
type Consumer struct {
	store      dbclient.Interface
	provider   queue.Provider
	dispatcher *Dispatcher
}

// NewConsumer builds a consumer for the given queue.
func NewConsumer(store dbclient.Interface, provider queue.Provider, dispatcher *Dispatcher) *Consumer {
	return &Consumer{
		store:      store,
		provider:   provider,
		dispatcher: dispatcher,
	}
}

// Run polls the queue until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	klog.Infof("consumer started on queue %s (dlq=%t)", c.provider.Name(), c.provider.IsDLQ())
	for {
		select {
		case <-ctx.Done():
			klog.Infof("consumer on queue %s stopped", c.provider.Name())
			return
		default:
		}
		messages, err := c.provider.GetMessages(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			klog.ErrorS(err, "failed to receive messages", "queue", c.provider.Name())
			time.Sleep(time.Second)
			continue
		}
		metrics.QueueDepthHint.Set(float64(len(messages)), c.provider.Name())
		for i := range messages {
			c.Handle(ctx, messages[i])
		}
	}
}

// Handle processes one received message and always acknowledges it; the
// retry copy, not the broker, carries a delivery forward.
func (c *Consumer) Handle(ctx context.Context, raw sqstypes.Message) {
	defer c.ack(ctx, raw)

	var msg types.DispatchMessage
	if err := json.Unmarshal([]byte(aws.ToString(raw.Body)), &msg); err != nil || !msg.Valid() {
		klog.Warningf("dropping invalid message on queue %s", c.provider.Name())
		return
	}
	if c.provider.IsDLQ() {
		c.handleDLQ(ctx, &msg)
		return
	}
	c.handleMain(ctx, &msg)
}

func (c *Consumer) handleMain(ctx context.Context, msg *types.DispatchMessage) {
	attemptNo := msg.DispatchAttempt
	result := c.dispatcher.Dispatch(ctx, msg, attemptNo)
	if result != ResultRetry {
		return
	}

	maxAttempts := commonconfig.GetMaxRetryAttempts()
	if attemptNo >= maxAttempts {
		c.markDead(ctx, msg.DeliveryId, attemptNo, commonerrors.MaxAttemptsExceeded,
			"retry attempts exhausted")
		return
	}

	backoff := BackoffSeconds(attemptNo)
	preferredAt := time.Now().UTC().Add(time.Duration(backoff) * time.Second)
	slot, err := c.store.ReserveSlot(ctx, preferredAt, dbclient.SlotSourceRetry,
		commonconfig.GetMaxDispatchPerMinute(), commonconfig.GetMaxSlotLookaheadMinutes())
	if err != nil {
		klog.ErrorS(err, "failed to reserve retry slot", "deliveryId", msg.DeliveryId)
		metrics.SlotReservations.Inc(dbclient.SlotSourceRetry, "error")
		c.markDead(ctx, msg.DeliveryId, attemptNo, commonerrors.RetryScheduleFailed, err.Error())
		return
	}
	if slot == nil {
		metrics.SlotReservations.Inc(dbclient.SlotSourceRetry, "full")
		c.markDead(ctx, msg.DeliveryId, attemptNo, commonerrors.RetryScheduleFailed,
			"no retry slot within look-ahead")
		return
	}
	metrics.SlotReservations.Inc(dbclient.SlotSourceRetry, "reserved")

	now := time.Now().UTC()
	retry := *msg
	retry.DispatchAttempt = attemptNo + 1
	retry.EnqueuedAt = timeutil.FormatRFC3339(now)
	retry.ScheduledFor = timeutil.FormatRFC3339(slot.MinuteStart)
	delay := timeutil.CeilSecondsUntil(slot.MinuteStart, now)
	if _, err = c.provider.SendMessage(ctx, &retry, delay); err != nil {
		klog.ErrorS(err, "failed to enqueue retry", "deliveryId", msg.DeliveryId)
		c.markDead(ctx, msg.DeliveryId, attemptNo, commonerrors.QueueSendFailed, err.Error())
		return
	}
	klog.V(2).Infof("delivery %s re-enqueued, attempt %d, backoff %ds",
		msg.DeliveryId, retry.DispatchAttempt, backoff)
}

func (c *Consumer) handleDLQ(ctx context.Context, msg *types.DispatchMessage) {
	c.markDead(ctx, msg.DeliveryId, msg.DispatchAttempt, commonerrors.DlqReached,
		"message surfaced on the dead-letter queue")
}

func (c *Consumer) markDead(ctx context.Context, deliveryId string, attemptNo int, code, message string) {
	if err := c.store.MarkDeliveryDead(ctx, deliveryId, attemptNo, nil, code, message,
		time.Now().UTC()); err != nil {
		klog.ErrorS(err, "failed to mark delivery dead", "deliveryId", deliveryId)
	}
	metrics.DeliveryTransitions.Inc(dbclient.DeliveryStatusDead, code)
}

func (c *Consumer) ack(ctx context.Context, raw sqstypes.Message) {
	if err := c.provider.DeleteMessage(ctx, raw.ReceiptHandle); err != nil {
		klog.ErrorS(err, "failed to delete message", "queue", c.provider.Name())
	}
}
