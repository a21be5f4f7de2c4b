/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"k8s.io/klog/v2"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	"github.com/NeutralPress/cloud/pkg/crypto"
	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	dbutils "github.com/NeutralPress/cloud/pkg/database/utils"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/metrics"
	"github.com/NeutralPress/cloud/pkg/telemetry"
	"github.com/NeutralPress/cloud/pkg/trace"
	"github.com/NeutralPress/cloud/pkg/types"
	"github.com/NeutralPress/cloud/pkg/utils"
)

// Result classifies one dispatch for the consumer's state machine.
type Result string

const (
	ResultSuccess Result = "success"
	ResultRetry   Result = "retry"
	ResultDrop    Result = "drop"

	maxErrorMessageLen = 500

	headerDeliveryId = "x-np-delivery-id"
	headerSiteId     = "x-np-site-id"

	triggerTypeCloud = "CLOUD"
)

// Dispatcher performs the signed trigger call against one instance and drives
// the delivery record through its outcome.
type Dispatcher struct {
	store dbclient.Interface
	ring  *crypto.KeyRing
	http  *resty.Client

	issuer      string
	audience    string
	triggerPath string
	timeout     time.Duration
}

// NewDispatcher builds a dispatcher over the shared store and key ring.
func NewDispatcher(store dbclient.Interface, ring *crypto.KeyRing) *Dispatcher {
	timeout := time.Duration(commonconfig.GetRequestTimeoutMs()) * time.Millisecond
	return &Dispatcher{
		store:       store,
		ring:        ring,
		http:        resty.New().SetTimeout(timeout),
		issuer:      commonconfig.GetCloudIssuer(),
		audience:    commonconfig.GetTriggerAudience(),
		triggerPath: commonconfig.GetTriggerPath(),
		timeout:     timeout,
	}
}

// Dispatch loads the instance, mints a trigger token, POSTs the trigger call
// and classifies the outcome. Every wire attempt leaves one attempt row; the
// delivery record is advanced according to the result.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *types.DispatchMessage, attemptNo int) Result {
	ctx, span := trace.StartSpan(ctx, "dispatch.trigger")
	defer span.End()
	span.SetAttributes(attribute.Int("attempt_no", attemptNo))

	result := d.dispatch(ctx, msg, attemptNo)
	span.SetAttributes(attribute.String("result", string(result)))
	metrics.DispatchResults.Inc(string(result))
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, msg *types.DispatchMessage, attemptNo int) Result {
	startedAt := time.Now().UTC()

	inst, err := d.store.GetInstanceByInstanceId(ctx, msg.InstanceId)
	if err != nil {
		klog.ErrorS(err, "failed to load instance for dispatch", "deliveryId", msg.DeliveryId)
		d.recordFailure(ctx, msg, attemptNo, startedAt, nil, false, commonerrors.RequestFailed, err.Error())
		d.markFailed(ctx, msg.DeliveryId, attemptNo, nil, commonerrors.RequestFailed, err.Error())
		return ResultRetry
	}
	if inst == nil || inst.Status != dbclient.InstanceStatusActive || !inst.SiteUrl.Valid {
		reason := "instance missing, inactive or without site url"
		d.recordFailure(ctx, msg, attemptNo, startedAt, nil, false, commonerrors.InstanceNotActive, reason)
		d.markDead(ctx, msg.DeliveryId, attemptNo, nil, commonerrors.InstanceNotActive, reason)
		return ResultDrop
	}

	token, err := crypto.MintTriggerToken(d.ring, d.issuer, d.audience, msg.DeliveryId, msg.SiteId, startedAt)
	if err != nil {
		klog.ErrorS(err, "failed to mint trigger token", "deliveryId", msg.DeliveryId)
		d.recordFailure(ctx, msg, attemptNo, startedAt, nil, false, commonerrors.TokenSignFailed, err.Error())
		d.markFailed(ctx, msg.DeliveryId, attemptNo, nil, commonerrors.TokenSignFailed, err.Error())
		return ResultRetry
	}

	body := &types.TriggerRequest{
		DeliveryId:  msg.DeliveryId,
		SiteId:      msg.SiteId,
		TriggerType: triggerTypeCloud,
		RequestedAt: startedAt.Format(time.RFC3339),
	}
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.http.R().
		SetContext(callCtx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("Content-Type", "application/json").
		SetHeader(headerDeliveryId, msg.DeliveryId).
		SetHeader(headerSiteId, msg.SiteId).
		SetBody(body).
		Post(JoinUrl(inst.SiteUrl.String, d.triggerPath))
	if err != nil {
		code := commonerrors.RequestFailed
		timedOut := isTimeout(err)
		if timedOut {
			code = commonerrors.RequestTimeout
		}
		d.recordFailure(ctx, msg, attemptNo, startedAt, nil, timedOut, code, err.Error())
		d.markFailed(ctx, msg.DeliveryId, attemptNo, nil, code, err.Error())
		return ResultRetry
	}

	status := int64(resp.StatusCode())
	sample := telemetry.Parse(resp.Body(), time.Now().UTC(),
		commonconfig.GetTelemetrySchemaVersion(), commonconfig.GetTelemetryRawMaxBytes())

	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices && sample.Accepted {
		d.recordAttempt(ctx, msg, attemptNo, startedAt, &status, false, "", "")
		d.insertSample(ctx, msg, inst, &sample)
		if err = d.store.MarkDeliveryDelivered(ctx, msg.DeliveryId, attemptNo, status,
			sample.Accepted, sample.DedupHit, time.Now().UTC()); err != nil {
			klog.ErrorS(err, "failed to mark delivery delivered", "deliveryId", msg.DeliveryId)
		}
		metrics.DeliveryTransitions.Inc(dbclient.DeliveryStatusDelivered, "")
		if err = d.store.UpdateInstanceLastSuccess(ctx, msg.InstanceId, time.Now().UTC()); err != nil {
			klog.ErrorS(err, "failed to update last_success_at", "instanceId", msg.InstanceId)
		}
		return ResultSuccess
	}

	message := fmt.Sprintf("HTTP %d, accepted=%t", resp.StatusCode(), sample.Accepted)
	d.recordFailure(ctx, msg, attemptNo, startedAt, &status, false, commonerrors.UnacceptedResponse, message)
	d.markFailed(ctx, msg.DeliveryId, attemptNo, &status, commonerrors.UnacceptedResponse, message)
	return ResultRetry
}

func (d *Dispatcher) insertSample(ctx context.Context, msg *types.DispatchMessage,
	inst *dbclient.Instance, sample *telemetry.Sample) {
	row := &dbclient.TelemetrySample{
		DeliveryId:    msg.DeliveryId,
		InstanceId:    inst.InstanceId,
		SiteId:        msg.SiteId,
		SchemaVer:     sample.SchemaVer,
		CollectedAt:   dbutils.NullTime(sample.CollectedAt),
		Accepted:      dbutils.BoolInt(sample.Accepted),
		DedupHit:      dbutils.BoolInt(sample.DedupHit),
		VerifyMs:      dbutils.NullInt64(sample.VerifyMs),
		ItemsVerified: dbutils.NullInt64(sample.ItemsVerified),
		ItemsFailed:   dbutils.NullInt64(sample.ItemsFailed),
		QueueDepth:    dbutils.NullInt64(sample.QueueDepth),
		AppVersion:    dbutils.NullString(sample.AppVersion),
		RawJson:       sample.RawJson,
	}
	if err := d.store.InsertTelemetrySample(ctx, row); err != nil {
		klog.ErrorS(err, "failed to insert telemetry sample", "deliveryId", msg.DeliveryId)
	}
}

func (d *Dispatcher) recordAttempt(ctx context.Context, msg *types.DispatchMessage, attemptNo int,
	startedAt time.Time, httpStatus *int64, timedOut bool, errorCode, errorMessage string) {
	finishedAt := time.Now().UTC()
	attempt := &dbclient.DeliveryAttempt{
		DeliveryId:   msg.DeliveryId,
		AttemptNo:    attemptNo,
		StartedAt:    dbutils.NullTime(startedAt),
		FinishedAt:   dbutils.NullTime(finishedAt),
		DurationMs:   finishedAt.Sub(startedAt).Milliseconds(),
		TimedOut:     dbutils.BoolInt(timedOut),
		ErrorCode:    dbutils.NullString(errorCode),
		ErrorMessage: dbutils.NullString(utils.Truncate(errorMessage, maxErrorMessageLen)),
	}
	if httpStatus != nil {
		attempt.HttpStatus = sql.NullInt64{Int64: *httpStatus, Valid: true}
	}
	if err := d.store.InsertDeliveryAttempt(ctx, attempt); err != nil {
		klog.ErrorS(err, "failed to insert delivery attempt", "deliveryId", msg.DeliveryId)
	}
}

func (d *Dispatcher) recordFailure(ctx context.Context, msg *types.DispatchMessage, attemptNo int,
	startedAt time.Time, httpStatus *int64, timedOut bool, errorCode, errorMessage string) {
	d.recordAttempt(ctx, msg, attemptNo, startedAt, httpStatus, timedOut, errorCode, errorMessage)
}

func (d *Dispatcher) markFailed(ctx context.Context, deliveryId string, attemptNo int,
	httpStatus *int64, errorCode, errorMessage string) {
	err := d.store.MarkDeliveryFailed(ctx, deliveryId, attemptNo, httpStatus,
		errorCode, utils.Truncate(errorMessage, maxErrorMessageLen))
	if err != nil {
		klog.ErrorS(err, "failed to mark delivery failed", "deliveryId", deliveryId)
	}
	metrics.DeliveryTransitions.Inc(dbclient.DeliveryStatusFailed, errorCode)
}

func (d *Dispatcher) markDead(ctx context.Context, deliveryId string, attemptNo int,
	httpStatus *int64, errorCode, errorMessage string) {
	err := d.store.MarkDeliveryDead(ctx, deliveryId, attemptNo, httpStatus,
		errorCode, utils.Truncate(errorMessage, maxErrorMessageLen), time.Now().UTC())
	if err != nil {
		klog.ErrorS(err, "failed to mark delivery dead", "deliveryId", deliveryId)
	}
	metrics.DeliveryTransitions.Inc(dbclient.DeliveryStatusDead, errorCode)
}

// JoinUrl concatenates an origin and a path with exactly one slash between.
func JoinUrl(origin, path string) string {
	return strings.TrimSuffix(origin, "/") + "/" + strings.TrimPrefix(path, "/")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
