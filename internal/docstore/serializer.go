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
	"sync/atomic"

	"planStore/pkg/syncmap"
)

// KeySerializer runs operations one at a time per key, in submission order.
//
// Each key maps to the completion channel of the last submitted operation.
// A new operation swaps its own channel in and waits for the previous one to
// close, so same-key operations form a FIFO chain while different keys never
// wait on each other. Entries are never evicted: a key that goes idle keeps a
// closed channel in the registry.
//
// There is no timeout. An operation that never returns stalls its key.
type KeySerializer struct {
	tails   *syncmap.Map[string, chan struct{}]
	waiting atomic.Int64

	// onQueue is told +1 when an operation starts waiting and -1 when its turn comes
	onQueue func(delta int)
}

// NewKeySerializer creates an empty serializer
func NewKeySerializer() *KeySerializer {
	return &KeySerializer{
		tails: syncmap.NewMap[string, chan struct{}](),
	}
}

// Do runs fn once every operation previously submitted for key has finished.
// The error (or panic) of fn belongs to this caller only; the next operation
// on key starts regardless.
func (s *KeySerializer) Do(key string, fn func() error) error {
	done := make(chan struct{})
	prev, _ := s.tails.Swap(key, done)
	defer close(done)

	if prev != nil {
		select {
		case <-prev:
		default:
			s.queued(1)
			<-prev
			s.queued(-1)
		}
	}

	return fn()
}

// Waiting returns the number of operations blocked behind another one
func (s *KeySerializer) Waiting() int64 {
	return s.waiting.Load()
}

// Keys returns the number of keys that were ever serialized
func (s *KeySerializer) Keys() int {
	return s.tails.Len()
}

func (s *KeySerializer) queued(delta int) {
	s.waiting.Add(int64(delta))
	if s.onQueue != nil {
		s.onQueue(delta)
	}
}
