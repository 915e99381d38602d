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
	"context"
	"errors"
	"io/fs"
)

var (
	// ErrInvalidKey key cannot be mapped to a file name
	ErrInvalidKey = errors.New("docstore: invalid key")
	// ErrUnknownAction patch action is not add, update or delete
	ErrUnknownAction = errors.New("docstore: unknown patch action")
	// ErrMissingID update or delete without an id to address
	ErrMissingID = errors.New("docstore: patch requires an id")
	// ErrMissingItem add or update without an item
	ErrMissingItem = errors.New("docstore: patch requires an item")
)

// IsInvalidRequest reports whether err was caused by the caller's input
// rather than by the file system.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrMissingID) ||
		errors.Is(err, ErrMissingItem)
}

// ErrorKind classifies an operation error for metrics labels
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsInvalidRequest(err):
		return "invalid_request"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, fs.ErrPermission):
		return "permission"
	default:
		return "io"
	}
}
