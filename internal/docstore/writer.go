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
	"fmt"
	"os"
	"path/filepath"

	"planStore/pkg/log"
)

// shadowWriter persists a document to its primary file and then refreshes
// the last-good copy.
//
// The primary write is the commit point. The shadow is replaced through a
// temporary file and a rename so that it always holds a complete earlier
// primary; failing to refresh it is logged but does not fail the write.
type shadowWriter struct {
	layout   Layout
	indent   string
	fileMode os.FileMode
	logger   *log.Logger
	observer Observer
}

func (w *shadowWriter) write(key string, value interface{}) error {
	data, err := encodeDocument(value, w.indent)
	if err != nil {
		return fmt.Errorf("encode document %q: %w", key, err)
	}

	primary := w.layout.PrimaryPath(key)
	if err := writeFileSync(primary, data, w.fileMode); err != nil {
		return fmt.Errorf("write primary %s: %w", primary, err)
	}

	if err := w.replaceShadow(key, data); err != nil {
		w.observer.ObserveShadowFailure()
		w.logger.Error("failed to refresh last-good copy",
			log.KeyString(key),
			log.Path(w.layout.ShadowPath(key)),
			log.Err(err))
	}

	return nil
}

func (w *shadowWriter) replaceShadow(key string, data []byte) error {
	shadow := w.layout.ShadowPath(key)

	tmp, err := os.CreateTemp(filepath.Dir(shadow), "."+filepath.Base(shadow)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, w.fileMode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, shadow); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// writeFileSync overwrites path with data and flushes it to stable storage
func writeFileSync(path string, data []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
