// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package stylist

import (
	"slices"
	"time"
)

// Artifact is one stylesheet inserted into a document.
type Artifact struct {
	ID             string    `json:"artifact_id"`
	CreatedAt      time.Time `json:"created_at"`
	Text           string    `json:"text"`
	DirectiveCount int       `json:"directive_count"`
}

// Ledger is the stack of live artifacts for one document, oldest first.
// A Ledger is not safe for concurrent use; the Applicator owning it
// serializes access.
type Ledger struct {
	artifacts []Artifact
}

// Push appends a to the tail.
func (l *Ledger) Push(a Artifact) {
	l.artifacts = append(l.artifacts, a)
}

// Peek returns the tail without removing it.
func (l *Ledger) Peek() (Artifact, bool) {
	if len(l.artifacts) == 0 {
		return Artifact{}, false
	}
	return l.artifacts[len(l.artifacts)-1], true
}

// Pop removes and returns the tail.
func (l *Ledger) Pop() (Artifact, bool) {
	a, ok := l.Peek()
	if !ok {
		return Artifact{}, false
	}
	l.artifacts[len(l.artifacts)-1] = Artifact{}
	l.artifacts = l.artifacts[:len(l.artifacts)-1]
	return a, true
}

// Len returns the number of live artifacts.
func (l *Ledger) Len() int {
	return len(l.artifacts)
}

// Snapshot returns a copy of the ledger, oldest first.
func (l *Ledger) Snapshot() []Artifact {
	return slices.Clone(l.artifacts)
}

// reset replaces the contents with keep.
func (l *Ledger) reset(keep []Artifact) {
	l.artifacts = keep
}
