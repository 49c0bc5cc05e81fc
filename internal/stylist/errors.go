// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package stylist

import (
	"github.com/samber/oops"

	"github.com/brushcss/brush/pkg/errutil"
)

// Error codes for applicator operations.
const (
	CodeNothingToApply   = "NOTHING_TO_APPLY"
	CodeApplicationError = "APPLICATION_ERROR"
	CodeNothingToUndo    = "NOTHING_TO_UNDO"
)

// ErrNothingToApply creates an error for an empty directive set.
func ErrNothingToApply() error {
	return oops.Code(CodeNothingToApply).Errorf("no directives to apply")
}

// ErrNothingToUndo creates an error for an empty ledger.
func ErrNothingToUndo() error {
	return oops.Code(CodeNothingToUndo).Errorf("no changes to undo")
}

// ErrApplication wraps a document failure during operation op.
func ErrApplication(op, artifactID string, cause error) error {
	b := oops.Code(CodeApplicationError).
		With("operation", op).
		With("artifact_id", artifactID)
	return errutil.Rewrap(b, cause, "%s %s", op, artifactID)
}
