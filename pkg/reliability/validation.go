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
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

var (
	// ValidationErrorCounter counts rejected keys
	ValidationErrorCounter int64
)

// KeyValidator checks that a key can be used as a single file name component
type KeyValidator struct {
	maxLength        int
	reservedSuffixes []string
}

// NewKeyValidator creates a validator. Keys ending in one of reservedSuffixes
// are rejected.
func NewKeyValidator(maxLength int, reservedSuffixes ...string) *KeyValidator {
	return &KeyValidator{
		maxLength:        maxLength,
		reservedSuffixes: reservedSuffixes,
	}
}

// ValidateKey rejects keys that are empty, too long, not UTF-8, or that could
// escape the data directory or collide with another key's files.
func (kv *KeyValidator) ValidateKey(key string) error {
	if err := kv.validateKey(key); err != nil {
		atomic.AddInt64(&ValidationErrorCounter, 1)
		return err
	}
	return nil
}

func (kv *KeyValidator) validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if kv.maxLength > 0 && len(key) > kv.maxLength {
		return fmt.Errorf("key too large: %d bytes (max %d bytes)", len(key), kv.maxLength)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("key is not valid UTF-8")
	}
	if key == "." || key == ".." {
		return fmt.Errorf("key %q is reserved", key)
	}
	if strings.ContainsAny(key, "/\\\x00") {
		return fmt.Errorf("key cannot contain path separators or NUL")
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("key cannot contain control characters")
		}
	}
	for _, suffix := range kv.reservedSuffixes {
		if strings.HasSuffix(key, suffix) {
			return fmt.Errorf("key cannot end in %q", suffix)
		}
	}
	return nil
}

// GetValidationErrorCount returns the number of rejected keys
func GetValidationErrorCount() int64 {
	return atomic.LoadInt64(&ValidationErrorCounter)
}

// ResetValidationErrorCount resets the counter
func ResetValidationErrorCount() {
	atomic.StoreInt64(&ValidationErrorCounter, 0)
}
