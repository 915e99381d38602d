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

package log

import (
	"time"

	"go.uber.org/zap"
)

// Field is a structured log field
type Field = zap.Field

// Common field constructors

func String(key, val string) zap.Field {
	return zap.String(key, val)
}

func Int64(key string, val int64) zap.Field {
	return zap.Int64(key, val)
}

func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}

// Err error field
func Err(err error) zap.Field {
	return zap.Error(err)
}

func Any(key string, val interface{}) zap.Field {
	return zap.Any(key, val)
}

// Store fields

// KeyString document key
func KeyString(key string) zap.Field {
	return zap.String("key", key)
}

// Action patch action
func Action(action string) zap.Field {
	return zap.String("action", action)
}

// Path file system path
func Path(path string) zap.Field {
	return zap.String("path", path)
}

// Size payload size in bytes
func Size(n int) zap.Field {
	return zap.Int("size", n)
}

// Source where a recovered value came from (primary, shadow, empty)
func Source(src string) zap.Field {
	return zap.String("source", src)
}

// Process fields

// Component component name
func Component(name string) zap.Field {
	return zap.String("component", name)
}

// Phase shutdown phase
func Phase(phase string) zap.Field {
	return zap.String("phase", phase)
}

// Count counter value
func Count(count int64) zap.Field {
	return zap.Int64("count", count)
}

// Goroutine goroutine name
func Goroutine(name string) zap.Field {
	return zap.String("goroutine", name)
}

// HTTP fields

// RequestID request correlation id
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// Method HTTP method
func Method(method string) zap.Field {
	return zap.String("method", method)
}

// RemoteAddr remote address
func RemoteAddr(addr string) zap.Field {
	return zap.String("remote_addr", addr)
}

// StatusCode HTTP status code
func StatusCode(code int) zap.Field {
	return zap.Int("status", code)
}
