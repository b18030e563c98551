// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds a log/slog.Handler from the level/format pair
// every session and CLI invocation is configured with.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Format selects a slog.Handler's output encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
)

var (
	// ErrInvalidArgument wraps a malformed level or format string.
	ErrInvalidArgument = errors.New("lnetyaml: invalid logging argument")
	// ErrUnknownLevel reports an unrecognized log level string.
	ErrUnknownLevel = errors.New("lnetyaml: unknown log level")
	// ErrUnknownFormat reports an unrecognized log format string.
	ErrUnknownFormat = errors.New("lnetyaml: unknown log format")
)

// NewHandler builds a slog.Handler from string-valued level/format
// flags, the shape cmd/lnetyaml's flags arrive in.
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	fmtVal, err := ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return Handler(w, lvl, fmtVal), nil
}

// Handler builds a slog.Handler for an already-parsed level and format.
func Handler(w io.Writer, lvl slog.Level, format Format) slog.Handler {
	opts := &slog.HandlerOptions{AddSource: true, Level: lvl}
	switch format {
	case FormatJSON:
		return slog.NewJSONHandler(w, opts)
	case FormatLogfmt:
		return slog.NewTextHandler(w, opts)
	}
	return nil
}

// ParseLevel parses a level string into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}
	return 0, ErrUnknownLevel
}

// ParseFormat parses a format string into a Format.
func ParseFormat(format string) (Format, error) {
	f := Format(strings.ToLower(format))
	if slices.Contains([]Format{FormatJSON, FormatLogfmt}, f) {
		return f, nil
	}
	return "", ErrUnknownFormat
}
