// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package logging provides structured logging for the bme680 tooling.
//
// It wraps a zap logger configured for human readable console output. The
// level is chosen explicitly by the caller or through the BME680_LOG_LEVEL
// environment variable; when neither is set, logging is silent.
package logging

import (
	"os"

	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar is the environment variable that controls logging verbosity
// when no level is passed to Initialize. Valid values: "debug", "info",
// "warn", "error".
const LogLevelEnvVar = "BME680_LOG_LEVEL"

var logger = zap.NewNop()

// Initialize creates the package logger with the specified level. If level
// is empty, the BME680_LOG_LEVEL environment variable is consulted; if that
// is empty too, logging stays disabled.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(colorable.NewColorableStdout()),
		zap.NewAtomicLevelAt(zapLevel),
	)
	logger = zap.New(core)
	return nil
}

// Sync flushes buffered log entries. Call before exiting.
func Sync() {
	_ = logger.Sync()
}

// Debug logs a message at debug level.
func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

// Info logs a message at info level.
func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

// Warn logs a message at warn level.
func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

// Error logs a message at error level.
func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}
