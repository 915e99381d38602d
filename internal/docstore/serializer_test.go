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
package docstore

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hold occupies key until the returned release func is called
func hold(t *testing.T, s *KeySerializer, key string) (release func(), finished <-chan struct{}) {
	t.Helper()
	started := make(chan struct{})
	rel := make(chan struct{})
	fin := make(chan struct{})
	go func() {
		defer close(fin)
		_ = s.Do(key, func() error {
			close(started)
			<-rel
			return nil
		})
	}()
	<-started
	return func() { close(rel) }, fin
}

func TestKeySerializer_FIFO(t *testing.T) {
	s := NewKeySerializer()
	release, _ := hold(t, s, "k")

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Do("k", func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}(i)
		require.Eventually(t, func() bool { return s.Waiting() == int64(i+1) },
			time.Second, time.Millisecond)
	}

	release()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
	assert.Equal(t, int64(0), s.Waiting())
}

func TestKeySerializer_NoOverlap(t *testing.T) {
	s := NewKeySerializer()

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do("k", func() error {
				n := active.Add(1)
				for {
					m := maxActive.Load()
					if n <= m || maxActive.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(100 * time.Microsecond)
				active.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestKeySerializer_KeysAreIndependent(t *testing.T) {
	s := NewKeySerializer()
	release, finished := hold(t, s, "a")
	defer func() {
		release()
		<-finished
	}()

	done := make(chan struct{})
	go func() {
		_ = s.Do("b", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operation on b waited for a")
	}
	assert.Equal(t, 2, s.Keys())
}

func TestKeySerializer_FailureDoesNotBlockNext(t *testing.T) {
	s := NewKeySerializer()
	boom := errors.New("boom")

	err := s.Do("k", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	ran := false
	err = s.Do("k", func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestKeySerializer_PanicDoesNotBlockNext(t *testing.T) {
	s := NewKeySerializer()

	assert.Panics(t, func() {
		_ = s.Do("k", func() error { panic("boom") })
	})

	done := make(chan struct{})
	go func() {
		_ = s.Do("k", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("key stalled after panic")
	}
}

func TestKeySerializer_QueueHook(t *testing.T) {
	s := NewKeySerializer()
	var total atomic.Int64
	s.onQueue = func(delta int) { total.Add(int64(delta)) }

	release, finished := hold(t, s, "k")
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do("k", func() error { return nil })
		}()
	}
	require.Eventually(t, func() bool { return total.Load() == 3 }, time.Second, time.Millisecond)

	release()
	wg.Wait()
	<-finished

	assert.Equal(t, int64(0), total.Load())
}
