/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/metrics"
	"github.com/NeutralPress/cloud/pkg/utils"
)

// InitRouters wires all routes of the control plane onto a fresh gin engine.
func InitRouters(handler *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(utils.Logger(), utils.Recovery(), countRequests())
	engine.NoRoute(func(c *gin.Context) {
		utils.AbortWithApiError(c, commonerrors.NewNotFound(c.Request.RequestURI+" not found"))
	})

	engine.GET("/", handler.Banner)
	engine.GET("/v1/health", handler.Health)
	engine.GET("/.well-known/jwks.json", handler.Jwks)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1/instances")
	v1.POST("/sync", func(c *gin.Context) { handle(c, handler.Sync) })
	v1.POST("/deregister", func(c *gin.Context) { handle(c, handler.Deregister) })
	v1.POST("/status", func(c *gin.Context) { handle(c, handler.Status) })

	return engine
}

func countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "no_route"
		}
		metrics.ApiRequests.Inc(path, strconv.Itoa(c.Writer.Status()))
	}
}
