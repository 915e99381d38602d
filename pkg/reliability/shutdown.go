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
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"planStore/pkg/log"
)

// ShutdownHook runs during one shutdown phase
type ShutdownHook func(ctx context.Context) error

// ShutdownPhase ordered shutdown stage
type ShutdownPhase int

const (
	// PhaseStopAccepting close listeners
	PhaseStopAccepting ShutdownPhase = iota
	// PhaseDrainRequests wait for in-flight requests and queued writes
	PhaseDrainRequests
	// PhaseCloseResources release files, flush logs
	PhaseCloseResources
)

var phaseOrder = []ShutdownPhase{PhaseStopAccepting, PhaseDrainRequests, PhaseCloseResources}

func (p ShutdownPhase) String() string {
	switch p {
	case PhaseStopAccepting:
		return "stop-accepting"
	case PhaseDrainRequests:
		return "drain-requests"
	case PhaseCloseResources:
		return "close-resources"
	default:
		return fmt.Sprintf("phase-%d", int(p))
	}
}

type namedHook struct {
	name string
	fn   ShutdownHook
}

// GracefulShutdown runs registered hooks phase by phase. Hooks of the same
// phase run concurrently; a failing phase does not stop later phases.
type GracefulShutdown struct {
	mu      sync.Mutex
	hooks   map[ShutdownPhase][]namedHook
	timeout time.Duration
	done    chan struct{}
	once    sync.Once
	err     error
}

// NewGracefulShutdown creates a shutdown manager
func NewGracefulShutdown(timeout time.Duration) *GracefulShutdown {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GracefulShutdown{
		hooks:   make(map[ShutdownPhase][]namedHook),
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// RegisterHook adds a hook to a phase
func (gs *GracefulShutdown) RegisterHook(phase ShutdownPhase, name string, hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks[phase] = append(gs.hooks[phase], namedHook{name: name, fn: hook})
}

// Shutdown runs all phases once. Later calls return the first result.
func (gs *GracefulShutdown) Shutdown(ctx context.Context) error {
	gs.once.Do(func() {
		defer close(gs.done)

		ctx, cancel := context.WithTimeout(ctx, gs.timeout)
		defer cancel()

		var errs []error
		for _, phase := range phaseOrder {
			gs.mu.Lock()
			hooks := append([]namedHook(nil), gs.hooks[phase]...)
			gs.mu.Unlock()

			start := time.Now()
			if err := runPhase(ctx, phase, hooks); err != nil {
				log.Error("Shutdown phase failed",
					log.Phase(phase.String()),
					log.Err(err),
					log.Component("shutdown"))
				errs = append(errs, err)
				continue
			}
			log.Info("Shutdown phase completed",
				log.Phase(phase.String()),
				log.Count(int64(len(hooks))),
				log.Duration("took", time.Since(start)),
				log.Component("shutdown"))
		}
		gs.err = errors.Join(errs...)
	})
	<-gs.done
	return gs.err
}

func runPhase(ctx context.Context, phase ShutdownPhase, hooks []namedHook) error {
	if len(hooks) == 0 {
		return nil
	}

	var g errgroup.Group
	for _, h := range hooks {
		g.Go(func() error {
			err := Recover(fmt.Sprintf("shutdown-%s-%s", phase, h.name), func() error {
				return h.fn(ctx)
			})
			if err != nil {
				return fmt.Errorf("%s: %w", h.name, err)
			}
			return nil
		})
	}

	finished := make(chan error, 1)
	go func() { finished <- g.Wait() }()

	select {
	case err := <-finished:
		return err
	case <-ctx.Done():
		return fmt.Errorf("phase %s: %w", phase, ctx.Err())
	}
}

// Done is closed once Shutdown has finished
func (gs *GracefulShutdown) Done() <-chan struct{} {
	return gs.done
}

// Finished reports whether Shutdown completed
func (gs *GracefulShutdown) Finished() bool {
	select {
	case <-gs.done:
		return true
	default:
		return false
	}
}
