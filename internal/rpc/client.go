// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package rpc

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"
)

// Reply is the decoded result of any Stylist method. Fields a method does
// not report are left zero.
type Reply struct {
	Success             bool     `json:"success"`
	ErrorKind           string   `json:"errorKind,omitempty"`
	Detail              string   `json:"detail,omitempty"`
	Document            string   `json:"document,omitempty"`
	ArtifactID          string   `json:"artifactId,omitempty"`
	DirectiveCount      int      `json:"directiveCount,omitempty"`
	CSS                 string   `json:"css,omitempty"`
	DroppedDirectives   int      `json:"droppedDirectives,omitempty"`
	DroppedDeclarations int      `json:"droppedDeclarations,omitempty"`
	Remaining           int      `json:"remaining,omitempty"`
	Vanished            bool     `json:"vanished,omitempty"`
	HasChanges          bool     `json:"hasChanges,omitempty"`
	HTML                string   `json:"html,omitempty"`
	ArtifactIDs         []string `json:"artifactIds,omitempty"`
}

// Client calls a Stylist server.
type Client struct {
	conn *grpc.ClientConn
}

// ClientConfig holds configuration for the gRPC client.
type ClientConfig struct {
	// Address is the server address, e.g. "localhost:7420".
	Address string

	// TLSConfig enables TLS. If nil, an insecure connection is used.
	TLSConfig *tls.Config

	// KeepaliveTime is how often to ping the server (default: 10s)
	KeepaliveTime time.Duration

	// KeepaliveTimeout is how long to wait for a ping response (default: 5s)
	KeepaliveTimeout time.Duration

	// DialOptions are appended after the options built from the fields above.
	DialOptions []grpc.DialOption
}

// NewClient creates a client for cfg.Address. The connection is
// established lazily on the first call.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Address == "" {
		return nil, oops.Code("RPC_CONFIG_INVALID").Errorf("address is required")
	}
	if cfg.KeepaliveTime == 0 {
		cfg.KeepaliveTime = 10 * time.Second
	}
	if cfg.KeepaliveTimeout == 0 {
		cfg.KeepaliveTimeout = 5 * time.Second
	}

	opts := []grpc.DialOption{
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveTime,
			Timeout:             cfg.KeepaliveTimeout,
			PermitWithoutStream: true,
		}),
	}
	if cfg.TLSConfig != nil {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(cfg.TLSConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	opts = append(opts, cfg.DialOptions...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, oops.Code("RPC_CONNECT_FAILED").With("address", cfg.Address).Wrapf(err, "connect to stylist")
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		return oops.Wrapf(err, "close connection")
	}
	return nil
}

// OpenHTML opens document id on the given markup.
func (c *Client) OpenHTML(ctx context.Context, id, url, markup string) (Reply, error) {
	return c.call(ctx, MethodOpenDocument, map[string]any{"document": id, "url": url, "html": markup})
}

// OpenURL opens document id on a headless browser tab showing url.
func (c *Client) OpenURL(ctx context.Context, id, url string) (Reply, error) {
	return c.call(ctx, MethodOpenDocument, map[string]any{"document": id, "url": url})
}

// ValidateAndApply sends a raw model response for document id.
func (c *Client) ValidateAndApply(ctx context.Context, id, response string) (Reply, error) {
	return c.call(ctx, MethodValidateAndApply, map[string]any{"document": id, "response": response})
}

// Design asks the server to style document id according to request.
func (c *Client) Design(ctx context.Context, id, request string) (Reply, error) {
	return c.call(ctx, MethodDesign, map[string]any{"document": id, "request": request})
}

// Undo removes the newest artifact of document id.
func (c *Client) Undo(ctx context.Context, id string) (Reply, error) {
	return c.call(ctx, MethodUndo, map[string]any{"document": id})
}

// HasPendingChanges reports whether document id has anything to undo.
func (c *Client) HasPendingChanges(ctx context.Context, id string) (Reply, error) {
	return c.call(ctx, MethodHasPendingChanges, map[string]any{"document": id})
}

// Render returns the current markup of document id.
func (c *Client) Render(ctx context.Context, id string) (Reply, error) {
	return c.call(ctx, MethodRenderDocument, map[string]any{"document": id})
}

// CloseDocument tears down document id.
func (c *Client) CloseDocument(ctx context.Context, id string) (Reply, error) {
	return c.call(ctx, MethodCloseDocument, map[string]any{"document": id})
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any) (Reply, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return Reply{}, oops.With("method", method).Wrapf(err, "encode request")
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return Reply{}, oops.Code("RPC_CALL_FAILED").With("method", method).Wrapf(err, "%s RPC failed", method)
	}

	data, err := json.Marshal(out.AsMap())
	if err != nil {
		return Reply{}, oops.With("method", method).Wrapf(err, "decode reply")
	}
	var r Reply
	if err := json.Unmarshal(data, &r); err != nil {
		return Reply{}, oops.With("method", method).Wrapf(err, "decode reply")
	}
	return r, nil
}
