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
// Package migrate splits the legacy combined data file into per-key documents.
package migrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"planStore/internal/docstore"
	"planStore/pkg/log"
)

// MigratedSuffix is appended to the legacy file name once it has been processed
const MigratedSuffix = ".migrated"

// Key outcomes reported to Options.OnKey
const (
	ResultMigrated = "migrated"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
)

// Options configures a migration run
type Options struct {
	// LegacyFile is the combined JSON object of key -> value
	LegacyFile string
	Logger     *log.Logger
	// OnKey is called once per legacy key with one of the Result constants
	OnKey func(result string)
}

// Report summarizes a migration run
type Report struct {
	Found    bool
	Migrated []string
	Skipped  []string
	Failed   []string
}

// Run moves every key of the legacy file into store, unless the key already
// has its own document. The legacy file is renamed to <file>.migrated when no
// key failed, so the migration does not run again. A missing legacy file is
// not an error.
func Run(ctx context.Context, store *docstore.Store, opts Options) (Report, error) {
	var report Report

	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(log.Component("migrate"), log.Path(opts.LegacyFile))
	onKey := opts.OnKey
	if onKey == nil {
		onKey = func(string) {}
	}

	data, err := os.ReadFile(opts.LegacyFile)
	if errors.Is(err, fs.ErrNotExist) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("read legacy file: %w", err)
	}
	report.Found = true
	logger.Info("found legacy data file, migrating to per-key documents")

	entries, err := decodeLegacy(data)
	if err != nil {
		return report, fmt.Errorf("parse legacy file %s: %w", opts.LegacyFile, err)
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := migrateKey(ctx, store, key, entries[key])
		onKey(result)
		switch result {
		case ResultMigrated:
			report.Migrated = append(report.Migrated, key)
			logger.Info("migrated key", log.KeyString(key))
		case ResultSkipped:
			report.Skipped = append(report.Skipped, key)
			if err != nil {
				logger.Warn("skipped legacy key", log.KeyString(key), log.Err(err))
			} else {
				logger.Debug("key already migrated", log.KeyString(key))
			}
		default:
			report.Failed = append(report.Failed, key)
			logger.Error("failed to migrate key", log.KeyString(key), log.Err(err))
		}
	}

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("migration incomplete: %d keys failed", len(report.Failed))
	}

	if err := os.Rename(opts.LegacyFile, opts.LegacyFile+MigratedSuffix); err != nil {
		return report, fmt.Errorf("rename legacy file: %w", err)
	}

	logger.Info("migration complete",
		log.Count(int64(len(report.Migrated))),
		log.Int("skipped", len(report.Skipped)))
	return report, nil
}

func decodeLegacy(data []byte) (map[string]json.RawMessage, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		return nil, errors.New("legacy file is not a JSON object")
	}
	return entries, nil
}

func migrateKey(ctx context.Context, store *docstore.Store, key string, raw json.RawMessage) (string, error) {
	if err := store.ValidateKey(key); err != nil {
		return ResultSkipped, err
	}

	_, err := os.Stat(store.Layout().PrimaryPath(key))
	if err == nil {
		return ResultSkipped, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return ResultFailed, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return ResultFailed, err
	}

	if err := store.Set(ctx, key, docstore.UnwrapJSONString(value)); err != nil {
		return ResultFailed, err
	}
	return ResultMigrated, nil
}
