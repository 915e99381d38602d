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

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"planStore/pkg/log"
)

// MetricsServer serves /metrics and /health on a listener separate from the API
type MetricsServer struct {
	server   *http.Server
	registry *prometheus.Registry
	logger   *log.Logger
}

// NewMetricsServer creates a metrics HTTP server listening on addr
func NewMetricsServer(addr string, registry *prometheus.Registry, logger *log.Logger) *MetricsServer {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics:   true,
		MaxRequestsInFlight: 10,
		Timeout:             30 * time.Second,
		ErrorHandling:       promhttp.ContinueOnError,
	}))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK\n"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	return &MetricsServer{
		server:   server,
		registry: registry,
		logger:   logger.With(log.Component("metrics")),
	}
}

// Handler returns the server's handler
func (ms *MetricsServer) Handler() http.Handler {
	return ms.server.Handler
}

// Start blocks until the server is shut down
func (ms *MetricsServer) Start() error {
	ms.logger.Info("starting metrics server", log.String("addr", ms.server.Addr))

	if err := ms.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ms.logger.Error("metrics server failed", log.Err(err))
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	ms.logger.Info("shutting down metrics server")

	if err := ms.server.Shutdown(ctx); err != nil {
		ms.logger.Error("metrics server shutdown failed", log.Err(err))
		return err
	}

	ms.logger.Info("metrics server stopped")
	return nil
}
