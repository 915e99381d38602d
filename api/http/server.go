// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http serves the document store over HTTP.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"planStore/internal/docstore"
	"planStore/pkg/health"
	"planStore/pkg/log"
	"planStore/pkg/metrics"
	"planStore/pkg/reliability"
)

// StoragePrefix is the route prefix of the document API
const StoragePrefix = "/api/storage/"

// Config HTTP API configuration
type Config struct {
	Address string
	Store   *docstore.Store

	// Optional collaborators; nil disables the feature
	Health  *health.HealthServer
	Metrics *metrics.Metrics
	Limiter *reliability.RequestLimiter

	Logger               *log.Logger
	SlowRequestThreshold time.Duration
	EnablePanicRecovery  bool
}

// Server HTTP API server
type Server struct {
	cfg        Config
	logger     *log.Logger
	handler    http.Handler
	httpServer *http.Server
}

// NewServer creates the API server and its middleware chain
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger()
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.With(log.Component("http")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+StoragePrefix+"{key}", s.handleGet)
	mux.HandleFunc("POST "+StoragePrefix+"{key}", s.handlePost)
	mux.HandleFunc("PATCH "+StoragePrefix+"{key}", s.handlePatch)
	if cfg.Health != nil {
		cfg.Health.Register(mux)
	}

	s.handler = s.chain(mux)
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	return s
}

// chain wraps h with the middleware stack, outermost first
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.limitBody(h)
	if s.cfg.EnablePanicRecovery {
		h = s.recoverPanic(h)
	}
	h = s.admit(h)
	h = s.observe(h)
	h = cors(h)
	h = requestID(h)
	return h
}

// Handler returns the full handler, middleware included
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP API server", log.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping HTTP API server")
	return s.httpServer.Shutdown(ctx)
}
