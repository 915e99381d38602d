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
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planStore/pkg/log"
)

// Mock checker for testing
type mockChecker struct {
	name   string
	status Status
	msg    string
	err    error
}

func (mc *mockChecker) Name() string {
	return mc.name
}

func (mc *mockChecker) Check(ctx context.Context) (Status, string, error) {
	return mc.status, mc.msg, mc.err
}

func TestHealthServer_Check(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)

	// Register healthy checkers
	hs.RegisterChecker(&mockChecker{
		name:   "store",
		status: StatusHealthy,
		msg:    "store ok",
	})
	hs.RegisterChecker(&mockChecker{
		name:   "disk",
		status: StatusHealthy,
		msg:    "disk ok",
	})

	// Perform check
	report := hs.Check(context.Background())

	// Verify
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, 2, len(report.Checks))
	assert.Equal(t, StatusHealthy, report.Checks["store"].Status)
	assert.Equal(t, StatusHealthy, report.Checks["disk"].Status)
}

func TestHealthServer_Check_Unhealthy(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)

	// Register healthy and unhealthy checkers
	hs.RegisterChecker(&mockChecker{
		name:   "store",
		status: StatusHealthy,
		msg:    "store ok",
	})
	hs.RegisterChecker(&mockChecker{
		name:   "disk",
		status: StatusUnhealthy,
		msg:    "disk failed",
		err:    fmt.Errorf("statfs failed"),
	})

	// Perform check
	report := hs.Check(context.Background())

	// Verify overall status is unhealthy
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, StatusHealthy, report.Checks["store"].Status)
	assert.Equal(t, StatusUnhealthy, report.Checks["disk"].Status)
}

func TestHealthServer_Check_Degraded(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)

	// Register healthy and degraded checkers
	hs.RegisterChecker(&mockChecker{
		name:   "store",
		status: StatusHealthy,
		msg:    "store ok",
	})
	hs.RegisterChecker(&mockChecker{
		name:   "disk",
		status: StatusDegraded,
		msg:    "disk space low",
	})

	// Perform check
	report := hs.Check(context.Background())

	// Verify overall status is degraded
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, StatusHealthy, report.Checks["store"].Status)
	assert.Equal(t, StatusDegraded, report.Checks["disk"].Status)
}

func TestHealthServer_HTTPHandler(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)

	hs.RegisterChecker(&mockChecker{
		name:   "store",
		status: StatusHealthy,
		msg:    "store ok",
	})

	// Create HTTP request
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	// Call handler
	hs.ServeHTTP(w, req)

	// Verify response
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	// Parse JSON response
	var report HealthReport
	err := json.NewDecoder(w.Body).Decode(&report)
	require.NoError(t, err)

	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, 1, len(report.Checks))
}

func TestHealthServer_HTTPHandler_Unhealthy(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)

	hs.RegisterChecker(&mockChecker{
		name:   "store",
		status: StatusUnhealthy,
		msg:    "store failed",
	})

	// Create HTTP request
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	// Call handler
	hs.ServeHTTP(w, req)

	// Verify response (503)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Parse JSON response
	var report HealthReport
	err := json.NewDecoder(w.Body).Decode(&report)
	require.NoError(t, err)

	assert.Equal(t, StatusUnhealthy, report.Status)
}

func TestHealthServer_ReadinessHandler(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)

	hs.RegisterChecker(&mockChecker{
		name:   "store",
		status: StatusHealthy,
		msg:    "store ok",
	})

	// Test readiness endpoint
	req := httptest.NewRequest("GET", "/readiness", nil)
	w := httptest.NewRecorder()

	handler := hs.ReadinessHandler()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ready\n", w.Body.String())
}

func TestHealthServer_ReadinessHandler_NotReady(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)

	hs.RegisterChecker(&mockChecker{
		name:   "store",
		status: StatusUnhealthy,
		msg:    "store failed",
	})

	// Test readiness endpoint
	req := httptest.NewRequest("GET", "/readiness", nil)
	w := httptest.NewRecorder()

	handler := hs.ReadinessHandler()
	handler(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Not Ready\n", w.Body.String())
}

func TestHealthServer_LivenessHandler(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)

	// Liveness should always return OK (process is alive)
	req := httptest.NewRequest("GET", "/liveness", nil)
	w := httptest.NewRecorder()

	handler := hs.LivenessHandler()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alive\n", w.Body.String())
}

func TestStoreChecker(t *testing.T) {
	// Test healthy store
	checker := NewStoreChecker("store", func(ctx context.Context) error {
		return nil
	})

	status, msg, err := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, status)
	assert.Contains(t, msg, "operational")
	assert.NoError(t, err)

	// Test unhealthy store
	checker = NewStoreChecker("store", func(ctx context.Context) error {
		return fmt.Errorf("connection failed")
	})

	status, msg, err = checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, status)
	assert.Contains(t, msg, "failed")
	assert.Error(t, err)
}

func TestHealthServer_CachesReport(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), time.Minute)
	checker := &mockChecker{name: "store", status: StatusHealthy}
	hs.RegisterChecker(checker)

	first := hs.Check(context.Background())
	checker.status = StatusUnhealthy
	second := hs.Check(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, StatusHealthy, second.Status)
}

func TestHealthServer_Register(t *testing.T) {
	hs := NewHealthServer(log.NewNop(), 0)
	mux := http.NewServeMux()
	hs.Register(mux)

	for _, path := range []string{"/health", "/readiness", "/liveness"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestProbeDataDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ProbeDataDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")

	assert.Error(t, ProbeDataDir(filepath.Join(dir, "missing")))
}

func TestQueueChecker(t *testing.T) {
	var waiting int64
	checker := NewQueueChecker("queue", func() int64 { return waiting }, 10)

	status, msg, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, status)
	assert.Equal(t, "0 operations waiting", msg)

	waiting = 11
	status, _, err = checker.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, status)
}

func TestDiskSpaceChecker(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("disk usage not implemented on windows")
	}

	checker := NewDiskSpaceChecker("disk", t.TempDir(), 0, 100)
	status, msg, err := checker.Check(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, StatusHealthy, status)
	assert.Contains(t, msg, "MB free")

	checker = NewDiskSpaceChecker("disk", t.TempDir(), 1<<50, 100)
	status, _, err = checker.Check(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, StatusUnhealthy, status)

	_, _, err = NewDiskSpaceChecker("disk", "/does/not/exist", 0, 100).Check(context.Background())
	assert.Error(t, err)
}
