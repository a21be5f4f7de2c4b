/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/types"
)

// RespondData writes the success envelope.
func RespondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, types.Response{Ok: true, Data: data})
}

// AbortWithApiError converts err into the error envelope and aborts the
// request. The HTTP status and wire code come from the error's taxonomy code;
// uncoded errors surface as INTERNAL_ERROR 500.
func AbortWithApiError(c *gin.Context, err error) {
	_ = c.Error(err)
	rsp := types.Response{
		Ok: false,
		Error: &types.ApiError{
			Code:    commonerrors.GetCode(err),
			Message: err.Error(),
		},
	}
	c.AbortWithStatusJSON(commonerrors.HTTPStatus(err), rsp)
}

// Logger returns the request-logging middleware.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		klog.Infof("request: method=%s | path=%s | status=%d | ip=%s | duration=%v",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			c.ClientIP(),
			time.Since(startTime),
		)
	}
}

// Recovery returns the panic-recovery middleware. Panics are logged and
// answered with the INTERNAL_ERROR envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				klog.Errorf("panic recovered: path=%s, err=%v", c.Request.URL.Path, r)
				AbortWithApiError(c, commonerrors.NewInternalError("internal server error"))
			}
		}()
		c.Next()
	}
}
