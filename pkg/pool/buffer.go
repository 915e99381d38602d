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

package pool

import (
	"bytes"
	"sync"
)

// BufferPool reuses encoding buffers for JSON documents and responses.
//
// Buffers that grew beyond maxCap are dropped on Put so that a single large
// document does not pin memory for the life of the process.
//
// Thread Safety: All operations are thread-safe via sync.Pool
type BufferPool struct {
	pool   sync.Pool
	maxCap int
}

// DefaultMaxBufferCap buffers larger than this are not returned to the pool
const DefaultMaxBufferCap = 1 << 20

var defaultPool = NewBufferPool(DefaultMaxBufferCap)

// NewBufferPool creates a pool; maxCap <= 0 keeps every buffer
func NewBufferPool(maxCap int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 4096))
			},
		},
		maxCap: maxCap,
	}
}

// Get returns an empty buffer. Call Put when done with it.
func (p *BufferPool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool. buf must not be used afterwards.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if p.maxCap > 0 && buf.Cap() > p.maxCap {
		return
	}
	p.pool.Put(buf)
}

// GetBuffer gets a buffer from the default pool
func GetBuffer() *bytes.Buffer {
	return defaultPool.Get()
}

// PutBuffer returns a buffer to the default pool
func PutBuffer(buf *bytes.Buffer) {
	defaultPool.Put(buf)
}
