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

package log

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotationConfig log rotation configuration
type RotationConfig struct {
	// MaxSize in megabytes before a file is rotated
	MaxSize int

	// MaxAge in days to retain rotated files
	MaxAge int

	// MaxBackups is the number of rotated files kept
	MaxBackups int

	// Compress gzips rotated files
	Compress bool

	// LocalTime uses local time in backup names (default UTC)
	LocalTime bool
}

// newRotatingWriter returns a size-rotated file sink for filename
func newRotatingWriter(filename string, cfg RotationConfig) zapcore.WriteSyncer {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 7
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 10
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	})
}
