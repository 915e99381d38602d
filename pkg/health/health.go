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

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"planStore/pkg/log"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// HealthReport represents the overall health status
type HealthReport struct {
	Status    Status                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker is an interface for health checks
type Checker interface {
	// Check returns status, message, and error (if any)
	Check(ctx context.Context) (Status, string, error)
	Name() string
}

// HealthServer provides health check HTTP endpoints
type HealthServer struct {
	mu       sync.RWMutex
	checkers []Checker
	logger   *log.Logger

	cachedReport    *HealthReport
	cacheValidUntil time.Time
	cacheDuration   time.Duration
}

// NewHealthServer creates a health server. Reports are cached for cacheDuration;
// zero disables caching.
func NewHealthServer(logger *log.Logger, cacheDuration time.Duration) *HealthServer {
	return &HealthServer{
		checkers:      make([]Checker, 0),
		logger:        logger.With(log.Component("health")),
		cacheDuration: cacheDuration,
	}
}

// RegisterChecker adds a health checker
func (hs *HealthServer) RegisterChecker(checker Checker) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.checkers = append(hs.checkers, checker)
	hs.logger.Info("registered health checker", log.String("name", checker.Name()))
}

// Check performs all health checks
func (hs *HealthServer) Check(ctx context.Context) *HealthReport {
	hs.mu.RLock()
	if hs.cachedReport != nil && time.Now().Before(hs.cacheValidUntil) {
		cached := hs.cachedReport
		hs.mu.RUnlock()
		return cached
	}
	hs.mu.RUnlock()

	hs.mu.Lock()
	defer hs.mu.Unlock()

	report := &HealthReport{
		Status:    StatusHealthy,
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]CheckResult),
	}

	for _, checker := range hs.checkers {
		startTime := time.Now()
		status, message, err := checker.Check(ctx)
		latency := time.Since(startTime).Milliseconds()

		if err != nil {
			status = StatusUnhealthy
			message = err.Error()
		}
		if status != StatusHealthy {
			hs.logger.Warn("health check not healthy",
				log.String("check", checker.Name()),
				log.String("status", string(status)),
				log.String("message", message))
		}

		report.Checks[checker.Name()] = CheckResult{
			Status:  status,
			Message: message,
			Latency: latency,
		}

		if status == StatusUnhealthy {
			report.Status = StatusUnhealthy
		} else if status == StatusDegraded && report.Status != StatusUnhealthy {
			report.Status = StatusDegraded
		}
	}

	hs.cachedReport = report
	hs.cacheValidUntil = time.Now().Add(hs.cacheDuration)

	return report
}

// ServeHTTP implements http.Handler for the /health endpoint
func (hs *HealthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report := hs.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if report.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK) // degraded still serves
	}

	json.NewEncoder(w).Encode(report)
}

// ReadinessHandler returns 200 unless a check is unhealthy
func (hs *HealthServer) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report := hs.Check(ctx)
		if report.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready\n"))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready\n"))
	}
}

// LivenessHandler only reports that the process is responsive
func (hs *HealthServer) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Alive\n"))
	}
}

// Register mounts /health, /readiness and /liveness on mux
func (hs *HealthServer) Register(mux *http.ServeMux) {
	mux.Handle("GET /health", hs)
	mux.HandleFunc("GET /readiness", hs.ReadinessHandler())
	mux.HandleFunc("GET /liveness", hs.LivenessHandler())
}

// StoreChecker wraps an arbitrary store probe
type StoreChecker struct {
	name      string
	checkFunc func(context.Context) error
}

// NewStoreChecker creates a store health checker
func NewStoreChecker(name string, checkFunc func(context.Context) error) *StoreChecker {
	return &StoreChecker{
		name:      name,
		checkFunc: checkFunc,
	}
}

func (sc *StoreChecker) Name() string {
	return sc.name
}

func (sc *StoreChecker) Check(ctx context.Context) (Status, string, error) {
	if err := sc.checkFunc(ctx); err != nil {
		return StatusUnhealthy, fmt.Sprintf("store check failed: %v", err), err
	}
	return StatusHealthy, "store is operational", nil
}

// ProbeDataDir creates, syncs and removes a scratch file in dir
func ProbeDataDir(dir string) error {
	f, err := os.CreateTemp(dir, ".health-*.tmp")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.Write([]byte("ok")); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// QueueChecker reports degraded when too many operations wait for their key
type QueueChecker struct {
	name      string
	waiting   func() int64
	threshold int64
}

// NewQueueChecker creates a queue depth checker
func NewQueueChecker(name string, waiting func() int64, threshold int64) *QueueChecker {
	return &QueueChecker{name: name, waiting: waiting, threshold: threshold}
}

func (qc *QueueChecker) Name() string {
	return qc.name
}

func (qc *QueueChecker) Check(ctx context.Context) (Status, string, error) {
	n := qc.waiting()
	message := fmt.Sprintf("%d operations waiting", n)
	if qc.threshold > 0 && n > qc.threshold {
		return StatusDegraded, message, nil
	}
	return StatusHealthy, message, nil
}

// DiskSpaceChecker checks available disk space
type DiskSpaceChecker struct {
	name          string
	path          string
	minFreeMB     int64
	warnThreshold int64 // used percentage, e.g. 90
}

// NewDiskSpaceChecker creates a disk space checker
func NewDiskSpaceChecker(name string, path string, minFreeMB int64, warnThreshold int64) *DiskSpaceChecker {
	return &DiskSpaceChecker{
		name:          name,
		path:          path,
		minFreeMB:     minFreeMB,
		warnThreshold: warnThreshold,
	}
}

func (dsc *DiskSpaceChecker) Name() string {
	return dsc.name
}

func (dsc *DiskSpaceChecker) Check(ctx context.Context) (Status, string, error) {
	totalMB, freeMB, usedPercent, err := getDiskUsage(dsc.path)
	if err != nil {
		return StatusUnhealthy, fmt.Sprintf("failed to get disk usage: %v", err), err
	}

	message := fmt.Sprintf("%.0fMB free of %.0fMB (%.1f%% used)", freeMB, totalMB, usedPercent)

	if freeMB < float64(dsc.minFreeMB) {
		return StatusUnhealthy, fmt.Sprintf("disk space critical: %s", message), nil
	}
	if usedPercent > float64(dsc.warnThreshold) {
		return StatusDegraded, fmt.Sprintf("disk space low: %s", message), nil
	}

	return StatusHealthy, message, nil
}
