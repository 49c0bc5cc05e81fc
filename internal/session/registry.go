// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/brushcss/brush/internal/stylist"
	"github.com/brushcss/brush/pkg/errutil"
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithOriginFilter sets the block list checked on Open.
func WithOriginFilter(f *OriginFilter) RegistryOption {
	return func(r *Registry) {
		r.origins = f
	}
}

// WithApplicatorOptions sets options for every new Applicator.
func WithApplicatorOptions(opts ...stylist.Option) RegistryOption {
	return func(r *Registry) {
		r.applicatorOpts = opts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// Registry holds the open sessions keyed by document id.
// Registry is safe for concurrent use.
type Registry struct {
	mu             sync.RWMutex
	sessions       map[string]*Session
	origins        *OriginFilter
	applicatorOpts []stylist.Option
	logger         *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open starts a session for doc under id. The document's URL is checked
// against the block list first.
func (r *Registry) Open(id string, doc Document) (*Session, error) {
	if id == "" {
		return nil, oops.Code(CodeInvalidSession).Errorf("document id is required")
	}
	if err := r.CheckOrigin(doc.URL()); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return nil, ErrExists(id)
	}
	opts := append([]stylist.Option{stylist.WithLogger(r.logger.With("document", id))}, r.applicatorOpts...)
	s := &Session{
		ID:         id,
		Doc:        doc,
		OpenedAt:   time.Now(),
		applicator: stylist.NewApplicator(doc, opts...),
	}
	r.sessions[id] = s
	r.logger.Info("document opened", "document", id, "url", doc.URL())
	return s, nil
}

// CheckOrigin returns ORIGIN_BLOCKED if url may not be opened.
func (r *Registry) CheckOrigin(url string) error {
	return r.origins.Check(url)
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound(id)
	}
	return s, nil
}

// IDs returns the open document ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close tears the session down: every artifact is removed from the
// document and the session is forgotten even if some removals fail.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound(id)
	}
	if err := s.teardown(ctx); err != nil {
		errutil.LogError(r.logger, "document teardown failed", err)
		return err
	}
	r.logger.Info("document closed", "document", id)
	return nil
}

// CloseAll closes every session.
func (r *Registry) CloseAll(ctx context.Context) error {
	var errs []error
	for _, id := range r.IDs() {
		if err := r.Close(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
