// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package designer runs the design pipeline for open documents.
//
// A design request captures the page, asks the model for a style
// response, validates it and applies the surviving directives as one
// artifact. ValidateAndApply runs the last two steps on a response the
// caller already has. Every applied artifact and every undo refreshes the
// document's last-change record.
package designer

import (
	"context"
	"io"
	"log/slog"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/brushcss/brush/internal/capture"
	"github.com/brushcss/brush/internal/changes"
	"github.com/brushcss/brush/internal/document"
	"github.com/brushcss/brush/internal/logging"
	"github.com/brushcss/brush/internal/model"
	"github.com/brushcss/brush/internal/session"
	"github.com/brushcss/brush/internal/style/validate"
	"github.com/brushcss/brush/internal/stylist"
	"github.com/brushcss/brush/pkg/errutil"
)

// CodeModelUnavailable is returned by Design when no model is configured.
const CodeModelUnavailable = "MODEL_UNAVAILABLE"

// Outcome describes an applied response.
type Outcome struct {
	ArtifactID     string
	DirectiveCount int
	Text           string
	Report         validate.Report
}

// Option configures a Service.
type Option func(*Service)

// WithModel sets the model used by Design.
func WithModel(d model.Designer) Option {
	return func(s *Service) {
		s.model = d
	}
}

// WithChanges sets the last-change store.
func WithChanges(store changes.Store) Option {
	return func(s *Service) {
		s.changes = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service is the pipeline over a session registry. It is safe for
// concurrent use; each document admits one apply or design request at a
// time.
type Service struct {
	sessions  *session.Registry
	validator *validate.Validator
	model     model.Designer
	changes   changes.Store
	logger    *slog.Logger
}

// New creates a Service. Without WithChanges records are kept in memory.
func New(sessions *session.Registry, validator *validate.Validator, opts ...Option) *Service {
	s := &Service{
		sessions:  sessions,
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.changes == nil {
		s.changes = changes.NewMemoryStore(changes.DefaultTTL)
	}
	return s
}

// Sessions returns the registry.
func (s *Service) Sessions() *session.Registry {
	return s.sessions
}

// OpenHTML opens a session on an HTML document read from r.
func (s *Service) OpenHTML(id, url string, r io.Reader) (*session.Session, error) {
	doc, err := document.ParseHTML(r, url)
	if err != nil {
		return nil, err
	}
	return s.sessions.Open(id, doc)
}

// OpenBrowser opens a session on a headless tab navigated to url. The tab
// outlives ctx and is closed with the session.
func (s *Service) OpenBrowser(ctx context.Context, id, url string) (*session.Session, error) {
	if err := s.sessions.CheckOrigin(url); err != nil {
		return nil, err
	}
	doc, err := document.OpenBrowser(context.WithoutCancel(ctx), url)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Open(id, doc)
	if err != nil {
		doc.Close()
		return nil, err
	}
	return sess, nil
}

// ValidateAndApply validates raw and applies the result to document id.
func (s *Service) ValidateAndApply(ctx context.Context, id string, raw []byte) (Outcome, error) {
	return s.run(ctx, id, "apply", func(ctx context.Context, _ *session.Session) (validate.Result, error) {
		return s.validator.Validate(ctx, raw)
	})
}

// ValidateAndApplyValue is ValidateAndApply for an already decoded
// response.
func (s *Service) ValidateAndApplyValue(ctx context.Context, id string, v any) (Outcome, error) {
	return s.run(ctx, id, "apply", func(ctx context.Context, _ *session.Session) (validate.Result, error) {
		return s.validator.ValidateValue(ctx, v)
	})
}

// Design runs the full pipeline for a natural-language request.
func (s *Service) Design(ctx context.Context, id, request string) (Outcome, error) {
	if s.model == nil {
		return Outcome{}, oops.Code(CodeModelUnavailable).Errorf("no model configured")
	}
	return s.run(ctx, id, "design", func(ctx context.Context, sess *session.Session) (validate.Result, error) {
		capturer, err := capturerFor(sess.Doc)
		if err != nil {
			return validate.Result{}, err
		}
		snap, err := capturer.Capture(ctx)
		if err != nil {
			return validate.Result{}, err
		}
		raw, err := s.model.Design(ctx, snap, request)
		if err != nil {
			return validate.Result{}, err
		}
		return s.validator.Validate(ctx, raw)
	})
}

// run claims the session, produces a validated result and applies it.
func (s *Service) run(ctx context.Context, id, kind string, produce func(context.Context, *session.Session) (validate.Result, error)) (Outcome, error) {
	ctx, span := tracer.Start(logging.WithDocument(ctx, id), "designer."+kind,
		trace.WithAttributes(attribute.String("brush.document", id)))
	defer span.End()

	sess, err := s.sessions.Get(id)
	if err != nil {
		return Outcome{}, err
	}
	release, err := sess.Begin()
	if err != nil {
		requestsTotal.WithLabelValues(kind, errutil.Code(err)).Inc()
		return Outcome{}, err
	}
	defer release()

	outcome, err := s.apply(ctx, sess, produce)
	result := "ok"
	if err != nil {
		result = errutil.Code(err)
		if result == "" {
			result = "unknown"
		}
	}
	requestsTotal.WithLabelValues(kind, result).Inc()
	if err != nil {
		span.SetStatus(codes.Error, result)
	} else {
		span.SetAttributes(attribute.String("brush.artifact_id", outcome.ArtifactID))
	}
	return outcome, err
}

func (s *Service) apply(ctx context.Context, sess *session.Session, produce func(context.Context, *session.Session) (validate.Result, error)) (Outcome, error) {
	res, err := produce(ctx, sess)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Report: res.Report}
	artifact, err := sess.Applicator().Apply(ctx, res.Set)
	if err != nil {
		return outcome, err
	}
	outcome.ArtifactID = artifact.ID
	outcome.DirectiveCount = artifact.DirectiveCount
	outcome.Text = artifact.Text

	s.syncRecord(ctx, sess)
	return outcome, nil
}

// Undo removes the most recent artifact from document id.
func (s *Service) Undo(ctx context.Context, id string) (stylist.UndoResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return stylist.UndoResult{}, err
	}
	res, err := sess.Applicator().UndoLast(ctx)
	if err != nil {
		return res, err
	}
	s.syncRecord(ctx, sess)
	return res, nil
}

// HasPendingChanges reports whether document id has an artifact to undo.
func (s *Service) HasPendingChanges(id string) (bool, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return false, err
	}
	return sess.Applicator().HasPendingChanges(), nil
}

// LastChange returns the recorded last change of document id.
func (s *Service) LastChange(ctx context.Context, id string) (changes.Record, error) {
	return s.changes.Load(ctx, id)
}

// Render returns the current markup of document id and its live artifact
// ids, oldest first.
func (s *Service) Render(ctx context.Context, id string) (string, []string, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return "", nil, err
	}
	var ids []string
	for _, a := range sess.Applicator().Artifacts() {
		ids = append(ids, a.ID)
	}

	switch doc := sess.Doc.(type) {
	case *document.HTML:
		return doc.String(), ids, nil
	case *document.Browser:
		markup, err := doc.OuterHTML(ctx)
		return markup, ids, err
	default:
		return "", ids, oops.Code(document.CodeDocumentFailure).Errorf("document %s cannot be rendered", id)
	}
}

// Close tears down document id and forgets its record.
func (s *Service) Close(ctx context.Context, id string) error {
	err := s.sessions.Close(ctx, id)
	s.forget(ctx, id)
	return err
}

// Shutdown closes every document and the change store.
func (s *Service) Shutdown(ctx context.Context) error {
	for _, id := range s.sessions.IDs() {
		s.forget(ctx, id)
	}
	err := s.sessions.CloseAll(ctx)
	if closeErr := s.changes.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// syncRecord makes the last-change record match the ledger tail. Undo does
// not take the in-flight guard, so an apply and an undo may finish in
// either order; reading the tail under the session lock keeps the record
// from naming an artifact that is already gone.
func (s *Service) syncRecord(ctx context.Context, sess *session.Session) {
	sess.WithTail(func(tail stylist.Artifact, ok bool) {
		if !ok {
			s.forget(ctx, sess.ID)
			return
		}
		s.record(ctx, sess, tail)
	})
}

func (s *Service) record(ctx context.Context, sess *session.Session, a stylist.Artifact) {
	rec := changes.Record{
		Document:   sess.ID,
		ArtifactID: a.ID,
		URL:        sess.Doc.URL(),
		CreatedAt:  a.CreatedAt,
	}
	if err := s.changes.Save(ctx, rec); err != nil {
		s.logger.WarnContext(logging.WithDocument(ctx, sess.ID), "failed to record last change", errutil.Attrs(err)...)
	}
}

func (s *Service) forget(ctx context.Context, id string) {
	if err := s.changes.Forget(ctx, id); err != nil {
		s.logger.WarnContext(logging.WithDocument(ctx, id), "failed to forget last change", errutil.Attrs(err)...)
	}
}

func capturerFor(doc session.Document) (capture.Capturer, error) {
	switch d := doc.(type) {
	case *document.HTML:
		return &capture.HTMLCapturer{Doc: d}, nil
	case *document.Browser:
		return &capture.BrowserCapturer{Browser: d}, nil
	default:
		return nil, oops.Code(capture.CodeCaptureError).Errorf("document type %T cannot be captured", doc)
	}
}
