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
	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/timeutil"
	"github.com/NeutralPress/cloud/pkg/types"
	"github.com/NeutralPress/cloud/pkg/utils"
)

const defaultDeregisterReason = "deregistered"

// Deregister disables an instance and takes it out of scheduling.
func (h *Handler) Deregister(c *gin.Context) (interface{}, error) {
	var req types.DeregisterRequest
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

	reason := req.Reason
	if reason == "" {
		reason = defaultDeregisterReason
	}
	if err = h.dbClient.DeregisterInstance(c.Request.Context(), req.SiteId, reason, now); err != nil {
		return nil, err
	}

	return &types.DeregisterResponse{
		InstanceId:     inst.InstanceId,
		Status:         dbclient.InstanceStatusDisabled,
		DeregisteredAt: timeutil.FormatRFC3339(now),
	}, nil
}
