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
package migrate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planStore/internal/docstore"
	"planStore/pkg/log"
)

func openStore(t *testing.T) *docstore.Store {
	t.Helper()
	s, err := docstore.Open(docstore.Options{
		Dir:    filepath.Join(t.TempDir(), "data"),
		Indent: "  ",
		Logger: log.NewNop(),
	})
	require.NoError(t, err)
	return s
}

func writeLegacy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planner-data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_MissingLegacyFile(t *testing.T) {
	store := openStore(t)

	report, err := Run(context.Background(), store, Options{
		LegacyFile: filepath.Join(t.TempDir(), "absent.json"),
		Logger:     log.NewNop(),
	})
	require.NoError(t, err)
	assert.False(t, report.Found)
}

func TestRun_SplitsLegacyFile(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.Set(ctx, "existing", []interface{}{"keep"}))

	legacy := writeLegacy(t, `{
		"tasks": [{"id": 1, "title": "a"}],
		"capacity": "{\"monday\": 8}",
		"note": "plain text",
		"existing": ["overwritten?"],
		"bad/key": 1
	}`)

	results := map[string]int{}
	report, err := Run(ctx, store, Options{
		LegacyFile: legacy,
		Logger:     log.NewNop(),
		OnKey:      func(r string) { results[r]++ },
	})
	require.NoError(t, err)

	assert.True(t, report.Found)
	assert.Equal(t, []string{"capacity", "note", "tasks"}, report.Migrated)
	assert.Equal(t, []string{"bad/key", "existing"}, report.Skipped)
	assert.Empty(t, report.Failed)
	assert.Equal(t, map[string]int{ResultMigrated: 3, ResultSkipped: 2}, results)

	assert.NoFileExists(t, legacy)
	assert.FileExists(t, legacy+MigratedSuffix)

	v, found, err := store.Get(ctx, "tasks")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []interface{}{map[string]interface{}{"id": json.Number("1"), "title": "a"}}, v)

	// string values holding JSON are stored parsed
	v, _, err = store.Get(ctx, "capacity")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"monday": json.Number("8")}, v)

	v, _, err = store.Get(ctx, "note")
	require.NoError(t, err)
	assert.Equal(t, "plain text", v)

	// split files win over legacy content
	v, _, err = store.Get(ctx, "existing")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"keep"}, v)

	// migrated documents are pretty printed
	data, err := os.ReadFile(store.Layout().PrimaryPath("capacity"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"monday\": 8\n}", string(data))
}

func TestRun_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	legacy := writeLegacy(t, `{"tasks": [1]}`)

	_, err := Run(ctx, store, Options{LegacyFile: legacy, Logger: log.NewNop()})
	require.NoError(t, err)

	report, err := Run(ctx, store, Options{LegacyFile: legacy, Logger: log.NewNop()})
	require.NoError(t, err)
	assert.False(t, report.Found)
}

func TestRun_BrokenLegacyFileIsKept(t *testing.T) {
	store := openStore(t)

	for _, content := range []string{"{broken", "[1, 2]", "null"} {
		legacy := writeLegacy(t, content)

		report, err := Run(context.Background(), store, Options{LegacyFile: legacy, Logger: log.NewNop()})
		assert.Error(t, err, content)
		assert.True(t, report.Found)
		assert.FileExists(t, legacy)
	}
}
