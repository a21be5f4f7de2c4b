/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/NeutralPress/cloud/pkg/crypto"
	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	"github.com/NeutralPress/cloud/pkg/utils"
)

// Handler handles HTTP requests of the registration API.
type Handler struct {
	dbClient dbclient.Interface
	ring     *crypto.KeyRing
	version  string
}

// NewHandler creates a new registration handler.
func NewHandler(dbClient dbclient.Interface, ring *crypto.KeyRing, version string) *Handler {
	return &Handler{
		dbClient: dbClient,
		ring:     ring,
		version:  version,
	}
}

// handle is a common handler wrapper for HTTP requests.
func handle(c *gin.Context, fn func(c *gin.Context) (interface{}, error)) {
	result, err := fn(c)
	if err != nil {
		klog.ErrorS(err, "handler error", "path", c.Request.URL.Path)
		utils.AbortWithApiError(c, err)
		return
	}
	utils.RespondData(c, result)
}
