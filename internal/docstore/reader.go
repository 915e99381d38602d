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
	"io/fs"
	"os"

	"planStore/pkg/log"
)

// Source tells where a read value came from
type Source string

const (
	SourcePrimary Source = "primary"
	SourceShadow  Source = "shadow"
	// SourceNone: the key was never written
	SourceNone Source = "none"
	// SourceEmpty: both files were unusable and the read degraded to empty
	SourceEmpty Source = "empty"
)

// readResult is a value plus where it came from. A nil value is EMPTY.
type readResult struct {
	value  interface{}
	source Source
}

// reader loads documents, absorbing every corruption condition
type reader struct {
	layout   Layout
	logger   *log.Logger
	observer Observer
}

// read never fails: a missing primary is EMPTY, an unusable primary falls
// back to the shadow, and an unusable shadow degrades to EMPTY.
func (r *reader) read(key string) readResult {
	primary := r.layout.PrimaryPath(key)

	data, err := os.ReadFile(primary)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return readResult{source: SourceNone}
	}

	if err == nil {
		v, decErr := decodeDocument(data)
		if decErr == nil {
			return readResult{value: v, source: SourcePrimary}
		}
		err = decErr
	}

	r.logger.Warn("primary document unreadable, trying last-good copy",
		log.KeyString(key),
		log.Path(primary),
		log.Err(err))

	shadow := r.layout.ShadowPath(key)
	data, err = os.ReadFile(shadow)
	if err == nil {
		v, decErr := decodeDocument(data)
		if decErr == nil {
			r.logger.Info("restored document from last-good copy", log.KeyString(key))
			r.observer.ObserveRecovery(string(SourceShadow))
			return readResult{value: v, source: SourceShadow}
		}
		err = decErr
	}

	r.logger.Error("last-good copy also unusable, serving empty document",
		log.KeyString(key),
		log.Path(shadow),
		log.Err(err))
	r.observer.ObserveRecovery(string(SourceEmpty))
	return readResult{source: SourceEmpty}
}
