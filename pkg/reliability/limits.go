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
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/time/rate"
)

var (
	// ErrTooManyRequests concurrent request limit reached
	ErrTooManyRequests = errors.New("request limit exceeded")
	// ErrRateLimited token bucket empty
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrRequestTooLarge request body over the configured size
	ErrRequestTooLarge = errors.New("request too large")
)

// ResourceLimits request admission limits
type ResourceLimits struct {
	MaxRequests    int64 // concurrent requests, 0 = unlimited
	MaxRequestSize int64 // bytes, 0 = unlimited
	RateLimitQPS   int   // 0 disables the token bucket
	RateLimitBurst int
}

// RequestLimiter admits requests under ResourceLimits
type RequestLimiter struct {
	limits          ResourceLimits
	limiter         *rate.Limiter
	currentRequests atomic.Int64
	rejected        atomic.Int64
}

// NewRequestLimiter creates a limiter
func NewRequestLimiter(limits ResourceLimits) *RequestLimiter {
	rl := &RequestLimiter{limits: limits}
	if limits.RateLimitQPS > 0 {
		burst := limits.RateLimitBurst
		if burst <= 0 {
			burst = limits.RateLimitQPS
		}
		rl.limiter = rate.NewLimiter(rate.Limit(limits.RateLimitQPS), burst)
	}
	return rl
}

// Acquire admits one request. The returned release must be called when the
// request is done.
func (rl *RequestLimiter) Acquire() (func(), error) {
	if rl.limiter != nil && !rl.limiter.Allow() {
		rl.rejected.Add(1)
		return nil, ErrRateLimited
	}

	current := rl.currentRequests.Add(1)
	if rl.limits.MaxRequests > 0 && current > rl.limits.MaxRequests {
		rl.currentRequests.Add(-1)
		rl.rejected.Add(1)
		return nil, fmt.Errorf("%w: %d/%d", ErrTooManyRequests, current, rl.limits.MaxRequests)
	}

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			rl.currentRequests.Add(-1)
		}
	}, nil
}

// CheckRequestSize rejects a declared body size over the limit
func (rl *RequestLimiter) CheckRequestSize(size int64) error {
	if rl.limits.MaxRequestSize > 0 && size > rl.limits.MaxRequestSize {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrRequestTooLarge, size, rl.limits.MaxRequestSize)
	}
	return nil
}

// MaxRequestSize returns the configured body limit
func (rl *RequestLimiter) MaxRequestSize() int64 {
	return rl.limits.MaxRequestSize
}

// Stats request counters
type Stats struct {
	CurrentRequests int64
	MaxRequests     int64
	Rejected        int64
}

// GetStats returns current usage
func (rl *RequestLimiter) GetStats() Stats {
	return Stats{
		CurrentRequests: rl.currentRequests.Load(),
		MaxRequests:     rl.limits.MaxRequests,
		Rejected:        rl.rejected.Load(),
	}
}
