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

package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"planStore/pkg/log"
	"planStore/pkg/reliability"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

type ctxKey int

const requestIDKey ctxKey = iota

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses a sane incoming X-Request-ID or generates a new one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// cors allows any origin and answers preflight requests directly
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PATCH, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.status = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// routeLabel keeps metric label cardinality bounded
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, StoragePrefix):
		return StoragePrefix + "{key}"
	case path == "/health", path == "/readiness", path == "/liveness":
		return path
	default:
		return "other"
	}
}

// observe records request metrics and writes the access log
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if s.cfg.Metrics != nil {
			s.cfg.Metrics.HTTPRequestInFlight.Inc()
			defer s.cfg.Metrics.HTTPRequestInFlight.Dec()
		}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordHTTPRequest(r.Method, routeLabel(r.URL.Path), rec.status, elapsed)
		}

		fields := []log.Field{
			log.Method(r.Method),
			log.Path(r.URL.Path),
			log.StatusCode(rec.status),
			log.Size(rec.bytes),
			log.Duration("duration", elapsed),
			log.RemoteAddr(r.RemoteAddr),
			log.RequestID(requestIDFrom(r.Context())),
		}
		if s.cfg.SlowRequestThreshold > 0 && elapsed > s.cfg.SlowRequestThreshold {
			s.logger.Warn("slow request", fields...)
			return
		}
		s.logger.Info("request", fields...)
	})
}

// admit applies the in-flight and rate limits
func (s *Server) admit(next http.Handler) http.Handler {
	if s.cfg.Limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release, err := s.cfg.Limiter.Acquire()
		if err != nil {
			if errors.Is(err, reliability.ErrRateLimited) {
				if s.cfg.Metrics != nil {
					s.cfg.Metrics.RecordRateLimitHit()
				}
				writeError(w, http.StatusTooManyRequests, err.Error())
				return
			}
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.RecordRequestRejected("limit_exceeded")
			}
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		defer release()

		next.ServeHTTP(w, r)
	})
}

// limitBody rejects oversized bodies up front and caps the rest while reading
func (s *Server) limitBody(next http.Handler) http.Handler {
	if s.cfg.Limiter == nil || s.cfg.Limiter.MaxRequestSize() <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.cfg.Limiter.CheckRequestSize(r.ContentLength); err != nil {
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.RecordRequestRejected("too_large")
			}
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Limiter.MaxRequestSize())
		next.ServeHTTP(w, r)
	})
}

// recoverPanic turns a handler panic into a 500 response
func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := w.(*statusRecorder)
		if !ok {
			rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		}

		err := reliability.Recover("http", func() error {
			next.ServeHTTP(rec, r)
			return nil
		})
		if err != nil && !rec.wroteHeader {
			writeError(rec, http.StatusInternalServerError, "internal server error")
		}
	})
}
