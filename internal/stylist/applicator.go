// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package stylist

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/brushcss/brush/internal/document"
	"github.com/brushcss/brush/internal/style"
	"github.com/brushcss/brush/pkg/errutil"
)

// UndoResult describes a completed undo.
type UndoResult struct {
	Artifact  Artifact
	Remaining int
	// Vanished is set when the artifact was already gone from the document.
	Vanished bool
}

// Option configures an Applicator.
type Option func(*Applicator)

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Applicator) {
		a.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Applicator) {
		a.logger = logger
	}
}

// Applicator owns the ledger for one document. All methods are safe for
// concurrent use and run one at a time.
type Applicator struct {
	mu     sync.Mutex
	doc    document.Document
	ledger Ledger
	now    func() time.Time
	last   time.Time
	logger *slog.Logger
}

// NewApplicator creates an Applicator for doc with an empty ledger.
func NewApplicator(doc document.Document, opts ...Option) *Applicator {
	a := &Applicator{
		doc:    doc,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply renders set as one stylesheet, inserts it and records it. An empty
// set creates nothing and fails with NOTHING_TO_APPLY. If insertion fails
// the ledger is unchanged.
func (a *Applicator) Apply(ctx context.Context, set style.DirectiveSet) (Artifact, error) {
	if set.Empty() {
		return Artifact{}, ErrNothingToApply()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	createdAt := a.tick()
	artifact := Artifact{
		ID:             NewArtifactID(createdAt),
		CreatedAt:      createdAt,
		Text:           set.Render(),
		DirectiveCount: len(set),
	}

	if err := a.doc.InsertStyle(ctx, artifact.ID, artifact.Text); err != nil {
		return Artifact{}, ErrApplication("insert", artifact.ID, err)
	}

	a.last = createdAt
	a.ledger.Push(artifact)
	artifactsAppliedTotal.Inc()
	pendingArtifacts.Inc()

	a.logger.Info("applied artifact",
		"artifact_id", artifact.ID,
		"directives", artifact.DirectiveCount,
		"declarations", set.DeclarationCount(),
		"pending", a.ledger.Len())
	return artifact, nil
}

// UndoLast removes the most recent artifact from the document and the
// ledger. If the document reports the artifact already gone, it is dropped
// from the ledger and the result is marked Vanished. Any other document
// failure leaves the ledger unchanged.
func (a *Applicator) UndoLast(ctx context.Context) (UndoResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tail, ok := a.ledger.Peek()
	if !ok {
		undosTotal.WithLabelValues(undoEmpty).Inc()
		return UndoResult{}, ErrNothingToUndo()
	}

	vanished := false
	if err := a.doc.RemoveStyle(ctx, tail.ID); err != nil {
		if !document.IsNotFound(err) {
			undosTotal.WithLabelValues(undoFailed).Inc()
			return UndoResult{}, ErrApplication("remove", tail.ID, err)
		}
		errutil.LogWarn(a.logger, "artifact already removed from document", err)
		vanished = true
	}

	a.ledger.Pop()
	pendingArtifacts.Dec()
	if vanished {
		undosTotal.WithLabelValues(undoVanished).Inc()
	} else {
		undosTotal.WithLabelValues(undoRemoved).Inc()
	}

	a.logger.Info("undid artifact", "artifact_id", tail.ID, "pending", a.ledger.Len())
	return UndoResult{Artifact: tail, Remaining: a.ledger.Len(), Vanished: vanished}, nil
}

// HasPendingChanges reports whether any artifact can be undone.
func (a *Applicator) HasPendingChanges() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Len() > 0
}

// Last returns the most recent artifact.
func (a *Applicator) Last() (Artifact, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Peek()
}

// Artifacts returns the live artifacts, oldest first.
func (a *Applicator) Artifacts() []Artifact {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Snapshot()
}

// ClearAll removes every artifact, newest first. Artifacts whose removal
// fails stay in the ledger and the failures are returned together as one
// APPLICATION_ERROR.
func (a *Applicator) ClearAll(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	live := a.ledger.Snapshot()
	var kept []Artifact
	var errs []error
	for i := len(live) - 1; i >= 0; i-- {
		artifact := live[i]
		err := a.doc.RemoveStyle(ctx, artifact.ID)
		if err != nil && !document.IsNotFound(err) {
			kept = append(kept, artifact)
			errs = append(errs, ErrApplication("remove", artifact.ID, err))
			continue
		}
		pendingArtifacts.Dec()
	}
	slices.Reverse(kept)
	a.ledger.reset(kept)

	if len(errs) > 0 {
		return oops.Code(CodeApplicationError).
			With("failed", len(errs)).
			Wrapf(errors.Join(errs...), "clear %d artifacts", len(live))
	}
	if len(live) > 0 {
		a.logger.Info("cleared artifacts", "count", len(live))
	}
	return nil
}

// tick returns a CreatedAt strictly after the previous one, even if the
// clock stalls or steps back. Callers hold mu.
func (a *Applicator) tick() time.Time {
	now := a.now()
	if !now.After(a.last) {
		now = a.last.Add(time.Nanosecond)
	}
	return now
}
