// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package stylist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	var l Ledger

	_, ok := l.Peek()
	assert.False(t, ok)
	_, ok = l.Pop()
	assert.False(t, ok)

	a := Artifact{ID: "a", CreatedAt: time.Unix(1, 0)}
	b := Artifact{ID: "b", CreatedAt: time.Unix(2, 0)}
	l.Push(a)
	l.Push(b)
	assert.Equal(t, 2, l.Len())

	top, ok := l.Peek()
	require.True(t, ok)
	assert.Equal(t, "b", top.ID)

	snap := l.Snapshot()
	snap[0].ID = "mutated"
	assert.Equal(t, []Artifact{a, b}, l.Snapshot(), "snapshot is a copy")

	popped, ok := l.Pop()
	require.True(t, ok)
	assert.Equal(t, b, popped)
	assert.Equal(t, 1, l.Len())
}

func TestArtifactIDs(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	first := NewArtifactID(now)
	second := NewArtifactID(now)

	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)

	parsed, err := ParseArtifactID(first)
	require.NoError(t, err)
	assert.Equal(t, uint64(now.UnixMilli()), parsed.Time())

	_, err = ParseArtifactID("brush-css-not-a-ulid")
	require.Error(t, err)
	_, err = ParseArtifactID("01J0000000000000000000000")
	require.Error(t, err)
}
