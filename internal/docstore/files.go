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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
)

const (
	primarySuffix = ".json"
	// keys may not end in shadowMarker, their primary would be another key's shadow
	shadowMarker = ".last-good"
	shadowSuffix = shadowMarker + primarySuffix
)

// Layout maps keys to their primary and shadow files inside one directory
type Layout struct {
	Dir string
}

// PrimaryPath returns <dir>/<key>.json
func (l Layout) PrimaryPath(key string) string {
	return filepath.Join(l.Dir, key+primarySuffix)
}

// ShadowPath returns <dir>/<key>.last-good.json
func (l Layout) ShadowPath(key string) string {
	return filepath.Join(l.Dir, key+shadowSuffix)
}

var errEmptyFile = errors.New("empty document file")

// decodeDocument parses one JSON value. Numbers are kept as json.Number so a
// read-modify-write cycle does not change their text. Trailing garbage is an
// error: a file with a valid prefix followed by junk is treated as corrupted.
func decodeDocument(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyFile
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// encodeDocument renders v the way documents are stored on disk
func encodeDocument(v interface{}, indent string) ([]byte, error) {
	if indent == "" {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", indent)
}

// UnwrapJSONString parses v once when it is a string holding JSON text.
// Any other value, or a string that is not valid JSON, is returned unchanged.
func UnwrapJSONString(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	parsed, err := decodeDocument([]byte(s))
	if err != nil {
		return v
	}
	return parsed
}
