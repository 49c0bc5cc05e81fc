// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package errutil holds helpers for oops errors shared across brush.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. Oops errors contribute their code and
// context as attributes.
func LogError(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, Attrs(err)...)
}

// LogWarn is LogError at warn level.
func LogWarn(logger *slog.Logger, msg string, err error) {
	logger.Warn(msg, Attrs(err)...)
}

// Attrs returns slog attributes describing err.
func Attrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := Code(err); code != "" {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	return attrs
}

// Code returns the oops code carried by err, or "" if there is none.
func Code(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := any(oopsErr.Code()).(string)
	return code
}

// HasCode reports whether err carries code.
func HasCode(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Rewrap attaches cause to a new error built by b. Oops reports the
// innermost code of a wrap chain, so a cause that already carries a code
// is recorded as context instead of wrapped; the new code stays visible.
func Rewrap(b oops.OopsErrorBuilder, cause error, format string, args ...any) error {
	code := Code(cause)
	if code == "" {
		return b.Wrapf(cause, format, args...)
	}
	return b.With("cause", cause.Error()).With("cause_code", code).Errorf(format+": %s", append(args, cause.Error())...)
}
