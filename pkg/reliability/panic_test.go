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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecover(t *testing.T) {
	ResetPanicCount()

	var mu sync.Mutex
	var seen []string
	SetPanicHandler(func(where string, _ interface{}, _ []byte) {
		mu.Lock()
		seen = append(seen, where)
		mu.Unlock()
	})
	defer SetPanicHandler(nil)

	err := Recover("handler", func() error { panic("boom") })
	assert.ErrorIs(t, err, ErrPanicRecovered)

	plain := errors.New("plain")
	assert.ErrorIs(t, Recover("handler", func() error { return plain }), plain)
	assert.NoError(t, Recover("handler", func() error { return nil }))

	assert.Equal(t, int64(1), GetPanicCount())
	assert.Equal(t, []string{"handler"}, seen)
}

func TestSafeGo(t *testing.T) {
	ResetPanicCount()

	done := make(chan struct{})
	SetPanicHandler(func(string, interface{}, []byte) { close(done) })
	defer SetPanicHandler(nil)

	SafeGo("worker", func() { panic("boom") })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("panic was not reported")
	}
	assert.Equal(t, int64(1), GetPanicCount())
}
