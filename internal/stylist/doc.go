// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package stylist applies validated directive sets to a document and
// reverses them one at a time.
//
// Each Apply renders the whole set as one stylesheet artifact and pushes
// it onto the Applicator's Ledger. UndoLast removes the ledger tail, which
// is both the most recently inserted artifact and the one with the
// greatest CreatedAt. The ledger only ever holds artifacts that are
// present in the document.
package stylist
