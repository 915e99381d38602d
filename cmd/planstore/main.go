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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	apihttp "planStore/api/http"
	"planStore/internal/docstore"
	"planStore/internal/migrate"
	"planStore/pkg/config"
	"planStore/pkg/health"
	"planStore/pkg/log"
	"planStore/pkg/metrics"
	"planStore/pkg/reliability"
)

const (
	diskMinFreeMB        = 100
	diskWarnUsedPercent  = 95
	queueDegradedWaiting = 1000
	healthCacheDuration  = 2 * time.Second
)

func main() {
	configPath := flag.String("config", "configs/planstore.yaml", "path to the YAML configuration file")
	listen := flag.String("listen", "", "API listen address, overrides the configuration")
	dataDir := flag.String("data-dir", "", "data directory, overrides the configuration")
	flag.Parse()

	cfg, err := config.LoadConfigOrDefault(*configPath, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Server.ListenAddress = *listen
	}
	if *dataDir != "" {
		cfg.Server.Storage.DataDir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.InitFromConfig(&cfg.Server.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("planstore exited with error", log.Err(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := cfg.Server

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)
	reliability.SetPanicHandler(func(where string, _ interface{}, _ []byte) {
		m.RecordPanicRecovered(where)
	})

	store, err := docstore.Open(docstore.Options{
		Dir:          srv.Storage.DataDir,
		Indent:       srv.Storage.Indent,
		FileMode:     os.FileMode(srv.Storage.FileMode),
		DirMode:      os.FileMode(srv.Storage.DirMode),
		MaxKeyLength: srv.Limits.MaxKeyLength,
		Logger:       logger,
		Observer:     metrics.NewStoreObserver(m, docstore.ErrorKind),
	})
	if err != nil {
		return err
	}

	if srv.Storage.LegacyFile != "" {
		report, err := migrate.Run(ctx, store, migrate.Options{
			LegacyFile: srv.Storage.LegacyFile,
			Logger:     logger,
			OnKey:      m.RecordMigratedKey,
		})
		if err != nil {
			// the legacy file stays in place and is retried on the next start
			logger.Error("legacy migration failed", log.Path(srv.Storage.LegacyFile), log.Err(err))
		} else if report.Found {
			logger.Info("legacy data migrated",
				log.Int("migrated", len(report.Migrated)),
				log.Int("skipped", len(report.Skipped)))
		}
	}

	var hs *health.HealthServer
	if srv.Reliability.EnableHealthCheck {
		hs = health.NewHealthServer(logger, healthCacheDuration)
		hs.RegisterChecker(health.NewStoreChecker("store", func(context.Context) error {
			return health.ProbeDataDir(store.Dir())
		}))
		hs.RegisterChecker(health.NewDiskSpaceChecker("disk", store.Dir(), diskMinFreeMB, diskWarnUsedPercent))
		hs.RegisterChecker(health.NewQueueChecker("queue", store.Serializer().Waiting, queueDegradedWaiting))
	}

	limits := reliability.ResourceLimits{
		MaxRequests:    srv.Limits.MaxRequests,
		MaxRequestSize: srv.Limits.MaxRequestSize,
	}
	if srv.RateLimit.Enable {
		limits.RateLimitQPS = srv.RateLimit.QPS
		limits.RateLimitBurst = srv.RateLimit.Burst
	}

	api := apihttp.NewServer(apihttp.Config{
		Address:              srv.ListenAddress,
		Store:                store,
		Health:               hs,
		Metrics:              m,
		Limiter:              reliability.NewRequestLimiter(limits),
		Logger:               logger,
		SlowRequestThreshold: srv.Monitoring.SlowRequestThreshold,
		EnablePanicRecovery:  srv.Reliability.EnablePanicRecovery,
	})

	var metricsServer *metrics.MetricsServer
	if srv.Monitoring.EnablePrometheus {
		metricsServer = metrics.NewMetricsServer(srv.Monitoring.PrometheusAddress, registry, logger)
	}

	if srv.Debug.GopsAddress != "" {
		if err := agent.Listen(agent.Options{Addr: srv.Debug.GopsAddress}); err != nil {
			logger.Warn("failed to start gops agent", log.String("addr", srv.Debug.GopsAddress), log.Err(err))
		} else {
			defer agent.Close()
		}
	}

	gs := reliability.NewGracefulShutdown(srv.Reliability.ShutdownTimeout)
	gs.RegisterHook(reliability.PhaseStopAccepting, "api", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, srv.Reliability.DrainTimeout)
		defer cancel()
		return api.Shutdown(ctx)
	})
	gs.RegisterHook(reliability.PhaseDrainRequests, "store-queue", func(ctx context.Context) error {
		return waitForQueue(ctx, store.Serializer())
	})
	if metricsServer != nil {
		gs.RegisterHook(reliability.PhaseCloseResources, "metrics", metricsServer.Shutdown)
	}
	gs.RegisterHook(reliability.PhaseCloseResources, "logger", func(context.Context) error {
		return filterSyncError(logger.Sync())
	})

	logger.Info("planstore starting",
		log.String("listen", srv.ListenAddress),
		log.Path(store.Dir()),
		log.Bool("prometheus", srv.Monitoring.EnablePrometheus),
		log.Bool("rate_limit", srv.RateLimit.Enable))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(api.Start)
	if metricsServer != nil {
		g.Go(metricsServer.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Info("shutdown signal received")
		}
		return gs.Shutdown(context.Background())
	})

	return g.Wait()
}

// waitForQueue blocks until no store operation is waiting for its key
// filterSyncError drops the errors fsync reports for terminals and pipes.
func filterSyncError(err error) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var kept []error
		for _, e := range joined.Unwrap() {
			if e = filterSyncError(e); e != nil {
				kept = append(kept, e)
			}
		}
		return errors.Join(kept...)
	}
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

func waitForQueue(ctx context.Context, s *docstore.KeySerializer) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for s.Waiting() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d operations still queued: %w", s.Waiting(), ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
