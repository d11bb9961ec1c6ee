/*
Copyright © 2020 Marvin

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultLogLevel      = "info"
	DefaultLogMaxSize    = 300 // MB
	DefaultLogMaxDays    = 7
	DefaultLogMaxBackups = 10
)

type Config struct {
	Level string
	// File, when set, sends logs to a rotated file instead of the console
	File string
	// Stdout false discards console output, used while the progress TUI owns the terminal
	Stdout bool
}

func NewLoggerConsoleOutput(stdout bool) {
	zap.ReplaceGlobals(zap.New(newConsoleCore(stdout, zapcore.DebugLevel)))
}

func newConsoleCore(stdout bool, level zapcore.Level) zapcore.Core {
	customTimeEncoder := func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = customTimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	if stdout {
		return zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)
	}
	return zapcore.NewCore(consoleEncoder, zapcore.AddSync(io.Discard), level)
}

// NewLogger replaces the global zap logger
func NewLogger(cfg *Config) error {
	levelStr := cfg.Level
	if levelStr == "" {
		levelStr = DefaultLogLevel
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level [%s]: %v", cfg.Level, err)
	}

	if cfg.File == "" {
		zap.ReplaceGlobals(zap.New(newConsoleCore(cfg.Stdout, level)))
		return nil
	}

	lg, props, err := log.InitLogger(&log.Config{
		Level: level.String(),
		File: log.FileLogConfig{
			Filename:   cfg.File,
			MaxSize:    DefaultLogMaxSize,
			MaxDays:    DefaultLogMaxDays,
			MaxBackups: DefaultLogMaxBackups,
		},
	})
	if err != nil {
		return fmt.Errorf("init file logger [%s] failed: %v", cfg.File, err)
	}
	log.ReplaceGlobals(lg, props)
	zap.ReplaceGlobals(lg)
	return nil
}
