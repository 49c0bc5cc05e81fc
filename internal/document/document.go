// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package document provides the live documents artifacts are inserted into.
//
// A Document exposes exactly the two mutations the applicator needs: insert
// a stylesheet as one addressable unit tagged with an id, and remove that
// unit again. Implementations must make InsertStyle atomic: on error no
// part of the stylesheet may remain in the document.
package document

import (
	"context"

	"github.com/samber/oops"
)

// Error codes for document mutations.
const (
	CodeNoInsertionPoint = "NO_INSERTION_POINT"
	CodeDuplicateID      = "DUPLICATE_ARTIFACT_ID"
	CodeArtifactNotFound = "ARTIFACT_NOT_FOUND"
	CodeInvalidStyle     = "INVALID_STYLESHEET"
	CodeDocumentFailure  = "DOCUMENT_FAILURE"
)

// ArtifactAttr marks style elements created by brush.
const ArtifactAttr = "data-brush"

// Document is a live document that accepts stylesheet artifacts.
type Document interface {
	// InsertStyle adds text as a stylesheet unit tagged with id.
	InsertStyle(ctx context.Context, id, text string) error
	// RemoveStyle removes the unit tagged with id. It fails with
	// ARTIFACT_NOT_FOUND if no such unit is present.
	RemoveStyle(ctx context.Context, id string) error
}

// ErrNoInsertionPoint creates an error for documents without a place to
// insert stylesheets.
func ErrNoInsertionPoint() error {
	return oops.Code(CodeNoInsertionPoint).Errorf("document has no head element")
}

// ErrDuplicateID creates an error for an id that is already present.
func ErrDuplicateID(id string) error {
	return oops.Code(CodeDuplicateID).With("artifact_id", id).Errorf("artifact %s already present", id)
}

// ErrArtifactNotFound creates an error for a missing artifact.
func ErrArtifactNotFound(id string) error {
	return oops.Code(CodeArtifactNotFound).With("artifact_id", id).Errorf("artifact %s not found", id)
}

// IsNotFound reports whether err is an ARTIFACT_NOT_FOUND error.
func IsNotFound(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == CodeArtifactNotFound
}
