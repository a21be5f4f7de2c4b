/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	"github.com/NeutralPress/cloud/pkg/crypto"
	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	dbutils "github.com/NeutralPress/cloud/pkg/database/utils"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/timeutil"
	"github.com/NeutralPress/cloud/pkg/types"
	"github.com/NeutralPress/cloud/pkg/utils"
)

const noBuildId = "no-build-id"

// Sync registers a new instance or refreshes an existing one. The public key
// submitted on the first sync is pinned; later syncs verify against the
// stored key and can never rebind the site to new material.
func (h *Handler) Sync(c *gin.Context) (interface{}, error) {
	var req types.SyncRequest
	body, err := utils.ParseRequestBody(c.Request, &req)
	if err != nil {
		return nil, err
	}
	if req.SiteId == "" || req.SitePubKey == "" || req.Signature == nil {
		return nil, commonerrors.NewBadRequest("siteId, sitePubKey and signature are required")
	}

	now := time.Now().UTC()
	if err = crypto.CheckFreshness(req.Signature, now, commonconfig.GetSignatureWindowMs()); err != nil {
		return nil, err
	}

	inst, err := h.dbClient.GetInstanceBySiteId(c.Request.Context(), req.SiteId)
	if err != nil {
		return nil, err
	}
	keyMaterial := req.SitePubKey
	if inst != nil {
		keyMaterial = inst.SitePubKey
	}
	payload, err := crypto.DecodeBody(body)
	if err != nil {
		return nil, err
	}
	if err = crypto.VerifyRequest(keyMaterial, req.Signature, c.Request.Method,
		c.Request.URL.Path, payload); err != nil {
		return nil, err
	}

	if inst == nil {
		inst, err = h.registerInstance(c, &req, now)
	} else {
		err = h.refreshInstance(c, inst, &req, now)
	}
	if err != nil {
		return nil, err
	}

	h.insertBuildEvent(c, inst, &req, now)

	return &types.SyncResponse{
		InstanceId:     inst.InstanceId,
		Status:         inst.Status,
		PendingReason:  dbutils.ParseNullString(inst.PendingReason),
		MinuteOfDay:    inst.MinuteOfDay,
		NextRunAt:      dbutils.ParseNullTimeToString(inst.NextRunAt),
		CloudActiveKid: h.ring.ActiveKid(),
		SyncedAt:       timeutil.FormatRFC3339(now),
	}, nil
}

// registerInstance inserts a brand-new instance with a pinned key and minute.
func (h *Handler) registerInstance(c *gin.Context, req *types.SyncRequest, now time.Time) (*dbclient.Instance, error) {
	siteUrl, pendingReason := utils.NormalizeSiteUrl(req.SiteUrl)
	status := dbclient.InstanceStatusActive
	if pendingReason != "" {
		status = dbclient.InstanceStatusPendingUrl
	}

	minuteOfDay := rand.Intn(timeutil.MinutesPerDay)
	if req.MinuteOfDay != nil && *req.MinuteOfDay >= 0 && *req.MinuteOfDay < timeutil.MinutesPerDay {
		minuteOfDay = *req.MinuteOfDay
	}

	inst := &dbclient.Instance{
		InstanceId:    uuid.NewString(),
		SiteId:        req.SiteId,
		SiteUrl:       dbutils.NullString(siteUrl),
		Status:        status,
		PendingReason: dbutils.NullString(pendingReason),
		SitePubKey:    req.SitePubKey,
		SiteKeyAlg:    req.SiteKeyAlg,
		MinuteOfDay:   minuteOfDay,
		LastSeenAt:    dbutils.NullTime(now),
		AppVersion:    dbutils.NullString(req.AppVersion),
		BuildId:       dbutils.NullString(req.BuildId),
		Commit:        dbutils.NullString(req.Commit),
		BuiltAt:       dbutils.NullString(req.BuiltAt),
		CreatedAt:     dbutils.NullTime(now),
		UpdatedAt:     dbutils.NullTime(now),
	}
	if status == dbclient.InstanceStatusActive {
		inst.NextRunAt = dbutils.NullTime(timeutil.ComputeNextRunAt(minuteOfDay, now))
	}
	if err := h.dbClient.InsertInstance(c.Request.Context(), inst); err != nil {
		return nil, err
	}
	klog.Infof("registered instance %s for site %s, status %s, minute %d",
		inst.InstanceId, req.SiteId, status, minuteOfDay)
	return inst, nil
}

// refreshInstance updates the mutable half of an existing instance. The
// pinned minute and key stay as they are; a supplied minuteOfDay is ignored.
func (h *Handler) refreshInstance(c *gin.Context, inst *dbclient.Instance, req *types.SyncRequest, now time.Time) error {
	siteUrl, pendingReason := utils.NormalizeSiteUrl(req.SiteUrl)
	status := dbclient.InstanceStatusActive
	if pendingReason != "" {
		status = dbclient.InstanceStatusPendingUrl
	}

	hadNextRun := inst.NextRunAt.Valid
	inst.SiteUrl = dbutils.NullString(siteUrl)
	inst.Status = status
	inst.PendingReason = dbutils.NullString(pendingReason)
	inst.SiteKeyAlg = req.SiteKeyAlg
	inst.LastSeenAt = dbutils.NullTime(now)
	inst.AppVersion = dbutils.NullString(req.AppVersion)
	inst.BuildId = dbutils.NullString(req.BuildId)
	inst.Commit = dbutils.NullString(req.Commit)
	inst.BuiltAt = dbutils.NullString(req.BuiltAt)
	inst.UpdatedAt = dbutils.NullTime(now)
	if status == dbclient.InstanceStatusActive {
		if !hadNextRun {
			inst.NextRunAt = dbutils.NullTime(timeutil.ComputeNextRunAt(inst.MinuteOfDay, now))
		}
	} else {
		inst.NextRunAt = dbutils.NullTime(time.Time{})
	}
	return h.dbClient.UpdateInstanceOnSync(c.Request.Context(), inst)
}

// insertBuildEvent records the build observation of this sync. A failure here
// never fails the sync.
func (h *Handler) insertBuildEvent(c *gin.Context, inst *dbclient.Instance, req *types.SyncRequest, now time.Time) {
	key := req.IdempotencyKey
	if key == "" {
		buildId := req.BuildId
		if buildId == "" {
			buildId = noBuildId
		}
		key = fmt.Sprintf("%s:%s:%s", req.SiteId, buildId, req.BuiltAt)
	}
	event := &dbclient.BuildEvent{
		InstanceId:     inst.InstanceId,
		IdempotencyKey: key,
		AppVersion:     req.AppVersion,
		BuildId:        req.BuildId,
		Commit:         req.Commit,
		BuiltAt:        req.BuiltAt,
		CreatedAt:      now,
	}
	if err := h.dbClient.InsertBuildEvent(c.Request.Context(), event); err != nil {
		klog.ErrorS(err, "failed to insert build event", "siteId", req.SiteId)
	}
}
