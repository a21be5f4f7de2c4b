/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	"github.com/NeutralPress/cloud/pkg/crypto"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/timeutil"
	"github.com/NeutralPress/cloud/pkg/types"
	"github.com/NeutralPress/cloud/pkg/utils"
)

const serviceName = "np-cloud"

// Banner serves the root service banner.
func (h *Handler) Banner(c *gin.Context) {
	utils.RespondData(c, &types.BannerResponse{
		Service: serviceName,
		Version: h.version,
		Time:    timeutil.FormatRFC3339(time.Now()),
	})
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	utils.RespondData(c, gin.H{"status": "ok"})
}

// Jwks publishes the configured JWKS document verbatim after structural
// validation, with client-side caching headers.
func (h *Handler) Jwks(c *gin.Context) {
	doc, err := crypto.PublishedJwks(commonconfig.GetCloudJwksJson())
	if err != nil {
		utils.AbortWithApiError(c, commonerrors.NewJwksParseError(err.Error()))
		return
	}
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", crypto.JwksCacheSeconds))
	c.Data(http.StatusOK, "application/json", []byte(doc))
}
