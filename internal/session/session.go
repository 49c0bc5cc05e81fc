// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package session tracks the open documents and their applicators.
//
// Each Session pairs one Document with the Applicator that owns its
// ledger. A Session admits one pipeline request at a time; a second
// caller gets REQUEST_IN_FLIGHT instead of queueing.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brushcss/brush/internal/document"
	"github.com/brushcss/brush/internal/stylist"
)

// Document is a live document with a known origin.
type Document interface {
	document.Document
	URL() string
}

// closer is implemented by documents holding external resources.
type closer interface {
	Close()
}

// Session is one open document.
type Session struct {
	ID       string
	Doc      Document
	OpenedAt time.Time

	applicator *stylist.Applicator
	inFlight   atomic.Bool
	tailMu     sync.Mutex
}

// Applicator returns the applicator owning this document's ledger.
func (s *Session) Applicator() *stylist.Applicator {
	return s.applicator
}

// Begin claims the session for one request. The returned release must be
// called when the request finishes.
func (s *Session) Begin() (release func(), err error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRequestInFlight(s.ID)
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			s.inFlight.Store(false)
		}
	}, nil
}

// WithTail calls fn with the applicator's most recent artifact. Calls are
// serialized per session and each reads the ledger after taking the lock,
// so state derived from the tail is last written from the newest ledger.
func (s *Session) WithTail(fn func(tail stylist.Artifact, ok bool)) {
	s.tailMu.Lock()
	defer s.tailMu.Unlock()
	fn(s.applicator.Last())
}

// Busy reports whether a request holds the session.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

// teardown removes every artifact and releases the document.
func (s *Session) teardown(ctx context.Context) error {
	err := s.applicator.ClearAll(ctx)
	if c, ok := s.Doc.(closer); ok {
		c.Close()
	}
	return err
}
