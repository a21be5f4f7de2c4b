/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	"github.com/NeutralPress/cloud/pkg/crypto"
	dbutils "github.com/NeutralPress/cloud/pkg/database/utils"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/types"
	"github.com/NeutralPress/cloud/pkg/utils"
)

// Status returns the read-only projection of an instance.
func (h *Handler) Status(c *gin.Context) (interface{}, error) {
	var req types.StatusRequest
	body, err := utils.ParseRequestBody(c.Request, &req)
	if err != nil {
		return nil, err
	}
	if req.SiteId == "" || req.Signature == nil {
		return nil, commonerrors.NewBadRequest("siteId and signature are required")
	}

	now := time.Now().UTC()
	if err = crypto.CheckFreshness(req.Signature, now, commonconfig.GetSignatureWindowMs()); err != nil {
		return nil, err
	}

	inst, err := h.dbClient.GetInstanceBySiteId(c.Request.Context(), req.SiteId)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, commonerrors.NewInstanceNotFound("no instance registered for site " + req.SiteId)
	}
	payload, err := crypto.DecodeBody(body)
	if err != nil {
		return nil, err
	}
	if err = crypto.VerifyRequest(inst.SitePubKey, req.Signature, c.Request.Method,
		c.Request.URL.Path, payload); err != nil {
		return nil, err
	}

	return &types.StatusResponse{
		InstanceId:    inst.InstanceId,
		SiteId:        inst.SiteId,
		Status:        inst.Status,
		PendingReason: dbutils.ParseNullString(inst.PendingReason),
		SiteUrl:       dbutils.ParseNullString(inst.SiteUrl),
		MinuteOfDay:   inst.MinuteOfDay,
		NextRunAt:     dbutils.ParseNullTimeToString(inst.NextRunAt),
		LastSeenAt:    dbutils.ParseNullTimeToString(inst.LastSeenAt),
		LastSuccessAt: dbutils.ParseNullTimeToString(inst.LastSuccessAt),
		AppVersion:    dbutils.ParseNullString(inst.AppVersion),
		BuildId:       dbutils.ParseNullString(inst.BuildId),
		Commit:        dbutils.ParseNullString(inst.Commit),
		BuiltAt:       dbutils.ParseNullString(inst.BuiltAt),
	}, nil
}
