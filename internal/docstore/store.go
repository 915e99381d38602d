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

// Package docstore is a key-addressed JSON document store backed by one file
// per key plus a last-good copy of it.
//
// Every operation on a key runs through a KeySerializer, so reads, writes and
// read-modify-write patches on one key never overlap and execute in the order
// they were submitted. Corrupted primary files are recovered from the last-good
// copy; reads never fail because of corruption.
package docstore

import (
	"context"
	"fmt"
	"os"
	"time"

	"planStore/pkg/log"
	"planStore/pkg/reliability"
)

// Options configures a Store
type Options struct {
	// Dir holds <key>.json and <key>.last-good.json files
	Dir string
	// Indent used when encoding documents, empty for compact JSON
	Indent string
	// FileMode for document files, default 0644
	FileMode os.FileMode
	// DirMode used when creating Dir, default 0755
	DirMode os.FileMode
	// MaxKeyLength bounds key length, default 200
	MaxKeyLength int

	Logger   *log.Logger
	Observer Observer
}

// Store is the externally visible get/set/patch surface
type Store struct {
	layout     Layout
	serializer *KeySerializer
	validator  *reliability.KeyValidator
	reader     *reader
	writer     *shadowWriter
	logger     *log.Logger
	observer   Observer
}

// Open prepares the data directory and returns a store over it
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("docstore: data directory is required")
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
	if opts.DirMode == 0 {
		opts.DirMode = 0o755
	}
	if opts.MaxKeyLength == 0 {
		opts.MaxKeyLength = 200
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	if err := os.MkdirAll(opts.Dir, opts.DirMode); err != nil {
		return nil, fmt.Errorf("docstore: create data directory: %w", err)
	}

	logger := opts.Logger.With(log.Component("docstore"))
	layout := Layout{Dir: opts.Dir}

	s := &Store{
		layout:     layout,
		serializer: NewKeySerializer(),
		validator:  reliability.NewKeyValidator(opts.MaxKeyLength, shadowMarker),
		reader:     &reader{layout: layout, logger: logger, observer: opts.Observer},
		writer: &shadowWriter{
			layout:   layout,
			indent:   opts.Indent,
			fileMode: opts.FileMode,
			logger:   logger,
			observer: opts.Observer,
		},
		logger:   logger,
		observer: opts.Observer,
	}
	s.serializer.onQueue = opts.Observer.ObserveQueued

	logger.Info("document store opened", log.Path(opts.Dir))
	return s, nil
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.layout.Dir
}

// Layout returns the key to file mapping
func (s *Store) Layout() Layout {
	return s.layout
}

// Serializer exposes the per-key serializer
func (s *Store) Serializer() *KeySerializer {
	return s.serializer
}

// Get returns the current value for key. found is false when the key was
// never written, holds JSON null, or both of its files are unusable.
// Corruption never produces an error.
func (s *Store) Get(ctx context.Context, key string) (value interface{}, found bool, err error) {
	start := time.Now()
	defer func() { s.observer.ObserveOperation("get", err, time.Since(start)) }()

	if err = s.admit(ctx, key); err != nil {
		return nil, false, err
	}

	var res readResult
	err = s.serializer.Do(key, func() error {
		res = s.reader.read(key)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return res.value, res.value != nil, nil
}

// Set replaces the document stored under key
func (s *Store) Set(ctx context.Context, key string, value interface{}) (err error) {
	start := time.Now()
	defer func() { s.observer.ObserveOperation("set", err, time.Since(start)) }()

	if err = s.admit(ctx, key); err != nil {
		return err
	}

	err = s.serializer.Do(key, func() error {
		return s.writer.write(key, value)
	})
	if err != nil {
		s.logger.Error("set failed", log.KeyString(key), log.Err(err))
	}
	return err
}

// Patch applies a list mutation to the document under key. The read, the
// mutation and the write happen in one serialized turn.
func (s *Store) Patch(ctx context.Context, key string, p Patch) (result PatchResult, err error) {
	start := time.Now()
	defer func() { s.observer.ObserveOperation("patch", err, time.Since(start)) }()

	if err = s.admit(ctx, key); err != nil {
		return PatchResult{}, err
	}
	if err = p.validate(); err != nil {
		return PatchResult{}, err
	}

	err = s.serializer.Do(key, func() error {
		current := s.reader.read(key)
		next, res := applyPatch(current.value, p)
		if err := s.writer.write(key, next); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		s.logger.Error("patch failed", log.KeyString(key), log.Action(string(p.Action)), log.Err(err))
		return PatchResult{}, err
	}

	if result.Matched == 0 && p.Action != ActionAdd {
		s.logger.Debug("patch matched no element",
			log.KeyString(key),
			log.Action(string(p.Action)),
			log.Any("id", p.targetID()))
	}
	return result, nil
}

// ValidateKey reports whether key can be stored, wrapping ErrInvalidKey
func (s *Store) ValidateKey(key string) error {
	if err := s.validator.ValidateKey(key); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return nil
}

// admit checks the key and the caller's context before an operation is
// queued. Once queued, an operation runs to completion.
func (s *Store) admit(ctx context.Context, key string) error {
	if err := s.ValidateKey(key); err != nil {
		return err
	}
	return ctx.Err()
}
