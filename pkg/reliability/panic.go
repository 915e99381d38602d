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
	"runtime/debug"
	"sync"
	"sync/atomic"

	"planStore/pkg/log"
)

// ErrPanicRecovered is returned by Recover when fn panicked
var ErrPanicRecovered = errors.New("internal error: panic recovered")

var (
	// PanicCounter global panic counter
	PanicCounter int64

	handlerMu    sync.RWMutex
	panicHandler func(where string, panicValue interface{}, stack []byte)
)

// SetPanicHandler installs a hook called for every recovered panic
func SetPanicHandler(h func(where string, panicValue interface{}, stack []byte)) {
	handlerMu.Lock()
	panicHandler = h
	handlerMu.Unlock()
}

func notify(where string, r interface{}, stack []byte) {
	atomic.AddInt64(&PanicCounter, 1)

	log.Error("Panic recovered",
		log.Goroutine(where),
		log.String("panic_value", fmt.Sprintf("%v", r)),
		log.String("stack", string(stack)),
		log.Component("panic-recovery"))

	handlerMu.RLock()
	h := panicHandler
	handlerMu.RUnlock()
	if h != nil {
		h(where, r, stack)
	}
}

// RecoverPanic must be deferred directly: defer RecoverPanic("name")
func RecoverPanic(goroutineName string) {
	if r := recover(); r != nil {
		notify(goroutineName, r, debug.Stack())
	}
}

// SafeGo starts a goroutine whose panics are logged instead of crashing the process
func SafeGo(name string, fn func()) {
	go func() {
		defer RecoverPanic(name)
		fn()
	}()
}

// Recover runs fn and converts a panic into ErrPanicRecovered
func Recover(where string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			notify(where, r, debug.Stack())
			err = ErrPanicRecovered
		}
	}()

	return fn()
}

// GetPanicCount returns the number of recovered panics
func GetPanicCount() int64 {
	return atomic.LoadInt64(&PanicCounter)
}

// ResetPanicCount resets the panic counter
func ResetPanicCount() {
	atomic.StoreInt64(&PanicCounter, 0)
}
