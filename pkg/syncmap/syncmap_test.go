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

package syncmap

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_SwapReturnsPrevious(t *testing.T) {
	m := NewMap[string, int]()

	prev, loaded := m.Swap("a", 1)
	assert.False(t, loaded)
	assert.Equal(t, 0, prev)

	prev, loaded = m.Swap("a", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, prev)

	v, ok := m.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMap_ConcurrentSwapFormsChain(t *testing.T) {
	// Every swapped-out value is observed exactly once, so concurrent
	// swappers form a single chain.
	m := NewMap[string, int]()
	const n = 100

	var mu sync.Mutex
	seen := make(map[int]int)
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			prev, _ := m.Swap("k", v)
			mu.Lock()
			seen[prev]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	last, _ := m.Load("k")
	assert.Len(t, seen, n)
	for v, c := range seen {
		assert.Equal(t, 1, c, "value %d swapped out more than once", v)
	}
	assert.NotContains(t, seen, last)
}

func TestMap_KeysAndLen(t *testing.T) {
	m := NewMap[string, bool]()
	m.Store("b", true)
	m.Store("a", true)
	_, loaded := m.LoadOrStore("a", false)
	assert.True(t, loaded)

	keys := m.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, 2, m.Len())

	count := 0
	m.Range(func(string, bool) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
