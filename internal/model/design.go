// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package model

import (
	"context"

	"github.com/brushcss/brush/internal/capture"
	"github.com/brushcss/brush/internal/style/policy"
)

// Designer turns a page snapshot and a request into an untrusted style
// response.
type Designer interface {
	Design(ctx context.Context, snap capture.Snapshot, request string) ([]byte, error)
}

// PromptDesigner builds prompts for a policy and sends them through a
// Client.
type PromptDesigner struct {
	Client *Client
	Policy *policy.Policy
}

var _ Designer = (*PromptDesigner)(nil)

// Design implements Designer.
func (d *PromptDesigner) Design(ctx context.Context, snap capture.Snapshot, request string) ([]byte, error) {
	return d.Client.Complete(ctx, SystemPrompt(d.Policy), UserPrompt(snap, request))
}
