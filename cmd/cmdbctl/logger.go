// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"context"
	"fmt"

	"github.com/netascode/go-cmdb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger based on the configuration
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var config zap.Config
	if level.Level() == zapcore.DebugLevel {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = level

	switch cfg.Format {
	case "console", "":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	case "json":
		config.Encoding = "json"
	default:
		return nil, fmt.Errorf("invalid log format %q (valid values: console, json)", cfg.Format)
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"

	return config.Build()
}

// zapLogger adapts a zap logger to cmdb.Logger
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps l so the library logs through it
func NewZapLogger(l *zap.Logger) cmdb.Logger {
	return &zapLogger{s: l.Sugar()}
}

func (z *zapLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	z.s.Debugw(msg, keysAndValues...)
}

func (z *zapLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	z.s.Infow(msg, keysAndValues...)
}

func (z *zapLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	z.s.Warnw(msg, keysAndValues...)
}

func (z *zapLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	z.s.Errorw(msg, keysAndValues...)
}
