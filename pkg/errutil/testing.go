// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package errutil

import (
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// T is the part of testing.TB the assertions need.
type T interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// AssertErrorCode fails t unless err carries code, as reported by Code.
// Wrapped and joined errors are searched the same way Code searches them.
func AssertErrorCode(t T, err error, code string) {
	t.Helper()
	require.Error(t, err, "expected an error with code %s", code)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext fails t unless err carries value under key in its
// oops context.
func AssertErrorContext(t T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error, got %T: %v", err, err)
	got, found := oopsErr.Context()[key]
	require.True(t, found, "context key %q missing from %v", key, oopsErr.Context())
	assert.Equal(t, value, got)
}
