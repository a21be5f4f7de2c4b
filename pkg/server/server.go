/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	"github.com/NeutralPress/cloud/pkg/crypto"
	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	"github.com/NeutralPress/cloud/pkg/dispatch"
	"github.com/NeutralPress/cloud/pkg/handlers"
	commonklog "github.com/NeutralPress/cloud/pkg/klog"
	"github.com/NeutralPress/cloud/pkg/options"
	"github.com/NeutralPress/cloud/pkg/queue"
	"github.com/NeutralPress/cloud/pkg/trace"
)

// Version is stamped at build time through -ldflags.
var Version = "dev"

const serviceName = "np-cloud"

type Server struct {
	opts       *options.Options
	dbClient   *dbclient.Client
	ring       *crypto.KeyRing
	httpServer *http.Server
	scheduler  *dispatch.Scheduler

	mainConsumer *dispatch.Consumer
	dlqConsumer  *dispatch.Consumer

	ctx      context.Context
	cancel   context.CancelFunc
	isInited bool
}

func NewServer() (*Server, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	s := &Server{
		opts:   &options.Options{},
		ctx:    ctx,
		cancel: cancel,
	}
	if err := s.init(); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

func (s *Server) init() error {
	gin.SetMode(gin.ReleaseMode)
	var err error
	if err = s.opts.InitFlags(); err != nil {
		klog.ErrorS(err, "failed to parse flags")
		return err
	}
	if err = commonklog.Init(s.opts.LogfilePath, s.opts.LogFileSize); err != nil {
		klog.ErrorS(err, "failed to init logs")
		return err
	}
	if err = s.initConfig(); err != nil {
		klog.ErrorS(err, "failed to init config")
		return err
	}
	if commonconfig.IsTracingEnable() {
		if err = trace.InitTracer(serviceName, commonconfig.GetTracingSamplingRatio()); err != nil {
			klog.ErrorS(err, "failed to init tracer")
			return err
		}
	}
	if s.dbClient = dbclient.NewClient(); s.dbClient == nil {
		return fmt.Errorf("the db client is not initialized")
	}
	if s.ring, err = crypto.ParseKeyRing(commonconfig.GetCloudPrivateKeysJson(),
		commonconfig.GetCloudActiveKid()); err != nil {
		klog.ErrorS(err, "failed to parse the signing key ring")
		return err
	}
	if err = s.syncSigningKeys(); err != nil {
		klog.ErrorS(err, "failed to sync signing keys")
		return err
	}
	if err = s.initDispatch(); err != nil {
		klog.ErrorS(err, "failed to init the dispatch pipeline")
		return err
	}
	s.isInited = true
	return nil
}

func (s *Server) initConfig() error {
	fullPath, err := filepath.Abs(s.opts.Config)
	if err != nil {
		return err
	}
	if err = commonconfig.LoadConfig(fullPath); err != nil {
		return fmt.Errorf("config path: %s, err: %v", fullPath, err)
	}
	return nil
}

// syncSigningKeys mirrors the configured key ring into cloud_signing_keys so
// the published rotation state survives restarts. The active kid stays
// active; every other ring member is kept in grace until maintenance retires
// it.
func (s *Server) syncSigningKeys() error {
	now := time.Now().UTC()
	for _, kid := range s.ring.Kids() {
		jwk, err := s.ring.PublicJwk(kid)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(jwk)
		if err != nil {
			return err
		}
		status := dbclient.SigningKeyStatusGrace
		if kid == s.ring.ActiveKid() {
			status = dbclient.SigningKeyStatusActive
		}
		key := &dbclient.CloudSigningKey{
			Kid:       kid,
			Status:    status,
			PublicJwk: string(raw),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = s.dbClient.UpsertSigningKey(s.ctx, key); err != nil {
			return err
		}
	}
	klog.Infof("signing keys synced, active kid: %s", s.ring.ActiveKid())
	return nil
}

func (s *Server) initDispatch() error {
	region := commonconfig.GetQueueRegion()
	if region == "" {
		return fmt.Errorf("queue.region is not defined")
	}
	dispatchUrl := commonconfig.GetQueueDispatchUrl()
	dlqUrl := commonconfig.GetQueueDlqUrl()
	if dispatchUrl == "" || dlqUrl == "" {
		return fmt.Errorf("queue.dispatch_url and queue.dlq_url are not defined")
	}

	sqsClient, err := queue.NewSQSClient(s.ctx, region)
	if err != nil {
		return err
	}
	waitTime := commonconfig.GetQueueWaitTimeSeconds()
	maxMessages := commonconfig.GetQueueMaxMessages()
	mainProvider, err := queue.NewDefaultProvider(sqsClient, dispatchUrl, waitTime, maxMessages)
	if err != nil {
		return err
	}
	dlqProvider, err := queue.NewDefaultProvider(sqsClient, dlqUrl, waitTime, maxMessages)
	if err != nil {
		return err
	}
	if !dlqProvider.IsDLQ() {
		return fmt.Errorf("queue.dlq_url %s does not name a dead-letter queue", dlqUrl)
	}

	dispatcher := dispatch.NewDispatcher(s.dbClient, s.ring)
	s.scheduler = dispatch.NewScheduler(s.dbClient, mainProvider)
	s.mainConsumer = dispatch.NewConsumer(s.dbClient, mainProvider, dispatcher)
	s.dlqConsumer = dispatch.NewConsumer(s.dbClient, dlqProvider, dispatcher)
	return nil
}

func (s *Server) Start() {
	if !s.isInited {
		klog.Errorf("please init np-cloud first")
		return
	}

	klog.Infof("starting np-cloud %s", Version)
	go func() {
		if err := s.startHttpServer(); err != nil && err != http.ErrServerClosed {
			klog.ErrorS(err, "failed to start http-server")
			s.cancel()
		}
	}()
	if err := s.scheduler.Start(); err != nil {
		klog.ErrorS(err, "failed to start scheduler")
		s.cancel()
	}
	go s.mainConsumer.Run(s.ctx)
	go s.dlqConsumer.Run(s.ctx)

	<-s.ctx.Done()
	s.Stop()
}

func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			klog.ErrorS(err, "failed to shutdown httpserver")
		}
	}
	s.scheduler.Stop()
	s.cancel()
	if err := trace.CloseTracer(); err != nil {
		klog.ErrorS(err, "failed to close tracer")
	}
	s.dbClient.Close()
	klog.Info("np-cloud is stopped")
	klog.Flush()
}

func (s *Server) startHttpServer() error {
	if commonconfig.GetServerPort() <= 0 {
		return fmt.Errorf("the server port is not defined")
	}
	handler := handlers.InitRouters(handlers.NewHandler(s.dbClient, s.ring, Version))
	addr := fmt.Sprintf(":%d", commonconfig.GetServerPort())
	s.httpServer = &http.Server{Addr: addr, Handler: handler}
	klog.Infof("http-server listen port: %d", commonconfig.GetServerPort())
	return s.httpServer.ListenAndServe()
}
