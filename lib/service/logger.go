// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates the standard service logger: a JSON handler
// writing to stderr at the given level. It also sets the default slog
// logger so that third-party code using slog.Info etc. gets the same
// handler.
func NewLogger(level slog.Leveler) *slog.Logger {
	logger := newJSONLogger(os.Stderr, level)
	slog.SetDefault(logger)
	return logger
}

func newJSONLogger(writer io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
}

// ParseLevel parses a configured log level ("debug", "info", "warn",
// "error", case-insensitive). The empty string means info.
func ParseLevel(name string) (slog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
