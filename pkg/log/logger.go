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
	"os"
	"sync"

	"planStore/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// Logger structured logger
type Logger struct {
	zap    *zap.Logger
	sugar  *zap.SugaredLogger
	config *Config
}

// Config logger configuration
type Config struct {
	// Level: debug, info, warn, error, dpanic, panic, fatal
	Level string

	// OutputPaths, e.g. ["stdout", "/var/log/planstore/app.log"]
	OutputPaths []string

	// ErrorOutputPaths receive Error and above only
	ErrorOutputPaths []string

	// Encoding: json or console
	Encoding string

	Development       bool
	DisableCaller     bool
	DisableStacktrace bool

	// EnableColor only applies to console encoding
	EnableColor bool

	// Rotation is applied to every file output path when non-nil
	Rotation *RotationConfig
}

// DefaultConfig default configuration
var DefaultConfig = &Config{
	Level:             "info",
	OutputPaths:       []string{"stdout"},
	ErrorOutputPaths:  []string{"stderr"},
	Encoding:          "console",
	Development:       false,
	DisableCaller:     false,
	DisableStacktrace: false,
	EnableColor:       true,
}

// DevelopmentConfig development configuration
var DevelopmentConfig = &Config{
	Level:             "debug",
	OutputPaths:       []string{"stdout"},
	ErrorOutputPaths:  []string{"stderr"},
	Encoding:          "console",
	Development:       true,
	DisableCaller:     false,
	DisableStacktrace: false,
	EnableColor:       true,
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewLogger creates a logger
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig
	}

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	encCfg := encoderConfig()
	if cfg.Encoding == "console" && cfg.EnableColor {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	newEncoder := func() zapcore.Encoder {
		if cfg.Encoding == "json" {
			return zapcore.NewJSONEncoder(encCfg)
		}
		return zapcore.NewConsoleEncoder(encCfg)
	}

	var cores []zapcore.Core
	for _, path := range cfg.OutputPaths {
		cores = append(cores, zapcore.NewCore(newEncoder(), getWriter(path, cfg.Rotation), level))
	}

	for _, path := range cfg.ErrorOutputPaths {
		if contains(cfg.OutputPaths, path) {
			continue
		}
		cores = append(cores, zapcore.NewCore(newEncoder(), getWriter(path, cfg.Rotation), zapcore.ErrorLevel))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.DisableCaller {
		opts = []zap.Option{}
	}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return FromZap(zap.New(zapcore.NewTee(cores...), opts...), cfg), nil
}

// FromZap wraps an existing zap logger, mostly useful in tests
func FromZap(z *zap.Logger, cfg *Config) *Logger {
	return &Logger{
		zap:    z,
		sugar:  z.Sugar(),
		config: cfg,
	}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return FromZap(zap.NewNop(), DefaultConfig)
}

// InitFromConfig builds the global logger from config.LogConfig
func InitFromConfig(cfg *config.LogConfig) (*Logger, error) {
	if cfg == nil {
		l, err := NewLogger(DefaultConfig)
		if err != nil {
			return nil, err
		}
		ReplaceGlobalLogger(l)
		return l, nil
	}

	logCfg := &Config{
		Level:            cfg.Level,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
		Encoding:         cfg.Encoding,
		EnableColor:      cfg.Encoding == "console",
	}
	if cfg.Rotation.Enable {
		logCfg.Rotation = &RotationConfig{
			MaxSize:    cfg.Rotation.MaxSizeMB,
			MaxAge:     cfg.Rotation.MaxAgeDays,
			MaxBackups: cfg.Rotation.MaxBackups,
			Compress:   cfg.Rotation.Compress,
		}
	}

	l, err := NewLogger(logCfg)
	if err != nil {
		return nil, err
	}
	ReplaceGlobalLogger(l)
	return l, nil
}

// GetLogger returns the global logger, creating a default one on first use
func GetLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger, _ = NewLogger(DefaultConfig)
	}
	return globalLogger
}

// ReplaceGlobalLogger replaces the global logger
func ReplaceGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Zap exposes the underlying zap logger for libraries that take one directly
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// With returns a child logger carrying fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	z := l.zap.With(fields...)
	return &Logger{
		zap:    z,
		sugar:  z.Sugar(),
		config: l.config,
	}
}

// Named returns a named child logger
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		zap:    l.zap.Named(name),
		sugar:  l.sugar.Named(name),
		config: l.config,
	}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// Fatal logs and exits the process
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, fields...)
}

func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

// getWriter returns the sink for an output path
func getWriter(path string, rotation *RotationConfig) zapcore.WriteSyncer {
	switch path {
	case "stdout":
		return zapcore.Lock(os.Stdout)
	case "stderr":
		return zapcore.Lock(os.Stderr)
	}

	if rotation != nil {
		return newRotatingWriter(path, *rotation)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		// fall back to stdout rather than losing the log
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.AddSync(file)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Global helpers

func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// Sync flushes the global logger
func Sync() error {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
