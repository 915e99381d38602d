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
package reliability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGracefulShutdown_RunsPhasesInOrder(t *testing.T) {
	gs := NewGracefulShutdown(time.Second)

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownHook {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	gs.RegisterHook(PhaseCloseResources, "close", record("close"))
	gs.RegisterHook(PhaseStopAccepting, "listener", record("listener"))
	gs.RegisterHook(PhaseDrainRequests, "drain", record("drain"))

	require.NoError(t, gs.Shutdown(context.Background()))
	assert.Equal(t, []string{"listener", "drain", "close"}, order)
	assert.True(t, gs.Finished())
}

func TestGracefulShutdown_FailureContinues(t *testing.T) {
	gs := NewGracefulShutdown(time.Second)
	boom := errors.New("boom")

	closed := false
	gs.RegisterHook(PhaseStopAccepting, "failing", func(context.Context) error { return boom })
	gs.RegisterHook(PhaseDrainRequests, "panicking", func(context.Context) error { panic("oops") })
	gs.RegisterHook(PhaseCloseResources, "close", func(context.Context) error {
		closed = true
		return nil
	})

	err := gs.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrPanicRecovered)
	assert.True(t, closed)

	// second call returns the same result without rerunning hooks
	closed = false
	assert.ErrorIs(t, gs.Shutdown(context.Background()), boom)
	assert.False(t, closed)
}

func TestGracefulShutdown_Timeout(t *testing.T) {
	gs := NewGracefulShutdown(50 * time.Millisecond)
	gs.RegisterHook(PhaseDrainRequests, "stuck", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(time.Second)
		return nil
	})

	start := time.Now()
	err := gs.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}
