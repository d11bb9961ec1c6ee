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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	err := NewLogger(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestNewLoggerConsoleLevel(t *testing.T) {
	require.NoError(t, NewLogger(&Config{Level: "warn", Stdout: false}))
	assert.False(t, zap.L().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, zap.L().Core().Enabled(zapcore.WarnLevel))
}

func TestNewLoggerFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dbload.log")
	require.NoError(t, NewLogger(&Config{Level: "info", File: file}))
	Info("file logger ready", zap.String("file", file))
	require.NoError(t, Sync())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "file logger ready")

	NewLoggerConsoleOutput(false)
}
