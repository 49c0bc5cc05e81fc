// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package changes records the most recent artifact applied to each
// document.
//
// A record is a cache of ledger state, scoped to a session by its TTL. The
// applicator's ledger stays authoritative; a missing or stale record never
// changes what undo removes.
package changes

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// Error codes for change stores.
const (
	CodeNotFound      = "CHANGE_NOT_FOUND"
	CodeStoreFailure  = "CHANGE_STORE_FAILURE"
	CodeSchemaMissing = "CHANGE_SCHEMA_MISSING"
	CodeUnknownStore  = "CHANGE_STORE_UNKNOWN"
)

// DefaultTTL bounds how long a record outlives its last update.
const DefaultTTL = 24 * time.Hour

// Record is the last change applied to a document.
type Record struct {
	Document   string    `json:"document"`
	ArtifactID string    `json:"artifact_id"`
	URL        string    `json:"url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists one Record per document.
type Store interface {
	// Save replaces the record for rec.Document.
	Save(ctx context.Context, rec Record) error
	// Load returns the record for document, or CHANGE_NOT_FOUND.
	Load(ctx context.Context, document string) (Record, error)
	// Forget deletes the record for document. Forgetting an absent record
	// is not an error.
	Forget(ctx context.Context, document string) error
	// Close releases the store's connections.
	Close() error
}

// ErrNotFound creates an error for a document without a record.
func ErrNotFound(document string) error {
	return oops.Code(CodeNotFound).With("document", document).Errorf("no recorded change for %s", document)
}

// IsNotFound reports whether err is a CHANGE_NOT_FOUND error.
func IsNotFound(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == CodeNotFound
}
