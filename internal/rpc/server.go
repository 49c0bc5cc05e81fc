// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package rpc

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/brushcss/brush/internal/designer"
	"github.com/brushcss/brush/pkg/errutil"
)

// Server implements StylistServer over a designer.Service.
type Server struct {
	svc    *designer.Service
	logger *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger for failed requests.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server backed by svc.
func NewServer(svc *designer.Service, opts ...ServerOption) *Server {
	s := &Server{svc: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenDocument opens {document, url, html?}. Without html the url is
// loaded in a headless browser tab.
func (s *Server) OpenDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "document")
	if err != nil {
		return nil, err
	}
	url := stringField(req, "url")

	if markup, ok := req.GetFields()["html"]; ok {
		_, err = s.svc.OpenHTML(id, url, strings.NewReader(markup.GetStringValue()))
	} else {
		if url == "" {
			return nil, status.Error(codes.InvalidArgument, "url is required without html")
		}
		_, err = s.svc.OpenBrowser(ctx, id, url)
	}
	if err != nil {
		return s.failure("open document", err)
	}
	return reply(map[string]any{"success": true, "document": id})
}

// ValidateAndApply validates {document, response} and applies it. The
// response may be an object or a JSON string.
func (s *Server) ValidateAndApply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "document")
	if err != nil {
		return nil, err
	}

	var out designer.Outcome
	switch v := req.GetFields()["response"].GetKind().(type) {
	case *structpb.Value_StringValue:
		out, err = s.svc.ValidateAndApply(ctx, id, []byte(v.StringValue))
	case nil:
		out, err = s.svc.ValidateAndApplyValue(ctx, id, nil)
	default:
		out, err = s.svc.ValidateAndApplyValue(ctx, id, req.GetFields()["response"].AsInterface())
	}
	if err != nil {
		return s.failure("validate and apply", err)
	}
	return outcomeReply(out)
}

// Design runs {document, request} through capture, the model and
// ValidateAndApply.
func (s *Server) Design(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "document")
	if err != nil {
		return nil, err
	}
	request, err := requireString(req, "request")
	if err != nil {
		return nil, err
	}
	out, err := s.svc.Design(ctx, id, request)
	if err != nil {
		return s.failure("design", err)
	}
	return outcomeReply(out)
}

// Undo removes the newest artifact of {document}.
func (s *Server) Undo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "document")
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Undo(ctx, id)
	if err != nil {
		return s.failure("undo", err)
	}
	return reply(map[string]any{
		"success":    true,
		"artifactId": res.Artifact.ID,
		"remaining":  res.Remaining,
		"vanished":   res.Vanished,
	})
}

// HasPendingChanges reports {hasChanges} for {document}.
func (s *Server) HasPendingChanges(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "document")
	if err != nil {
		return nil, err
	}
	pending, err := s.svc.HasPendingChanges(id)
	if err != nil {
		return s.failure("has pending changes", err)
	}
	return reply(map[string]any{"success": true, "hasChanges": pending})
}

// RenderDocument returns {html, artifactIds} for {document}.
func (s *Server) RenderDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "document")
	if err != nil {
		return nil, err
	}
	markup, ids, err := s.svc.Render(ctx, id)
	if err != nil {
		return s.failure("render document", err)
	}
	list := make([]any, 0, len(ids))
	for _, a := range ids {
		list = append(list, a)
	}
	return reply(map[string]any{"success": true, "html": markup, "artifactIds": list})
}

// CloseDocument removes every artifact of {document} and forgets it.
func (s *Server) CloseDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "document")
	if err != nil {
		return nil, err
	}
	if err := s.svc.Close(ctx, id); err != nil {
		return s.failure("close document", err)
	}
	return reply(map[string]any{"success": true})
}

func (s *Server) failure(op string, err error) (*structpb.Struct, error) {
	kind := Kind(err)
	if kind == KindInternal {
		errutil.LogError(s.logger, op+" failed", err)
	} else {
		s.logger.Debug(op+" failed", "kind", kind, "error", err)
	}
	return reply(map[string]any{
		"success":   false,
		"errorKind": kind,
		"detail":    err.Error(),
	})
}

func outcomeReply(out designer.Outcome) (*structpb.Struct, error) {
	return reply(map[string]any{
		"success":             true,
		"artifactId":          out.ArtifactID,
		"directiveCount":      out.DirectiveCount,
		"css":                 out.Text,
		"droppedDirectives":   out.Report.DroppedDirectives,
		"droppedDeclarations": out.Report.DroppedDeclarations,
	})
}

func reply(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func requireString(req *structpb.Struct, name string) (string, error) {
	v := stringField(req, name)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return v, nil
}
