// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package validate turns untrusted model output into a DirectiveSet.
//
// Validation has two stages. The envelope check is all-or-nothing: the
// response must be an object with a "selectors" array whose elements each
// carry a non-empty string "selector" and an object "styles"; anything
// else rejects the whole response with MALFORMED_RESPONSE. Content
// filtering never fails: declarations and selectors that violate the
// policy are dropped and counted in the Report.
package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/brushcss/brush/internal/style"
	"github.com/brushcss/brush/internal/style/policy"
)

// envelope is the decoding form of a response. Styles keep input order.
type envelope struct {
	Selectors []struct {
		Selector string                                          `json:"selector"`
		Styles   *orderedmap.OrderedMap[string, json.RawMessage] `json:"styles"`
	} `json:"selectors"`
}

// Drop records one selector or declaration removed by the policy.
type Drop struct {
	Directive int           `json:"directive"` // index in the response
	Selector  string        `json:"selector"`
	Property  string        `json:"property,omitempty"`
	Value     string        `json:"value,omitempty"`
	Reason    policy.Reason `json:"reason"`
	Pattern   string        `json:"pattern,omitempty"`
}

// Report summarizes what filtering removed.
type Report struct {
	Directives          int    `json:"directives"`
	DroppedDirectives   int    `json:"dropped_directives"`
	DroppedDeclarations int    `json:"dropped_declarations"`
	Drops               []Drop `json:"drops,omitempty"`
}

// Clean reports whether nothing was dropped.
func (r Report) Clean() bool {
	return r.DroppedDirectives == 0 && r.DroppedDeclarations == 0
}

// Result is a validated response.
type Result struct {
	Set    style.DirectiveSet
	Report Report
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for drop diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// Validator checks responses against an injected policy.
// Validator is safe for concurrent use.
type Validator struct {
	policy *policy.Policy
	schema *jschema.Schema
	logger *slog.Logger
}

// New creates a Validator for the given policy.
func New(p *policy.Policy, opts ...Option) (*Validator, error) {
	sch, err := envelopeSchema()
	if err != nil {
		return nil, err
	}

	v := &Validator{
		policy: p,
		schema: sch,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Policy returns the policy the validator enforces.
func (v *Validator) Policy() *policy.Policy {
	return v.policy
}

// Validate checks a raw JSON response. Property order within each styles
// object is preserved.
func (v *Validator) Validate(ctx context.Context, raw []byte) (Result, error) {
	instance, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		recordOutcome(outcomeMalformed)
		return Result{}, ErrMalformedResponse("response is not valid JSON", err)
	}

	if err := v.schema.Validate(instance); err != nil {
		recordOutcome(outcomeMalformed)
		return Result{}, ErrMalformedResponse(schemaDetail(instance), err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		recordOutcome(outcomeMalformed)
		return Result{}, ErrMalformedResponse("response does not decode into selector/styles pairs", err)
	}

	report := Report{Directives: len(env.Selectors)}
	set := make(style.DirectiveSet, 0, len(env.Selectors))
	for i, entry := range env.Selectors {
		candidates := make([]candidate, 0, entry.Styles.Len())
		for pair := entry.Styles.Oldest(); pair != nil; pair = pair.Next() {
			value, isText := textValue(pair.Value)
			candidates = append(candidates, candidate{
				decl:   style.Declaration{Property: pair.Key, Value: value},
				isText: isText,
			})
		}
		if d, ok := v.filterDirective(ctx, i, entry.Selector, candidates, &report); ok {
			set = append(set, d)
		}
	}

	v.finish(ctx, report, len(set))
	return Result{Set: set, Report: report}, nil
}

// ValidateValue checks an already decoded response, such as the result of
// json.Unmarshal into an any. Go maps carry no order, so properties of a
// decoded map are visited in sorted order.
func (v *Validator) ValidateValue(ctx context.Context, response any) (Result, error) {
	raw, err := json.Marshal(response)
	if err != nil {
		recordOutcome(outcomeMalformed)
		return Result{}, ErrMalformedResponse("response cannot be encoded as JSON", err)
	}
	return v.Validate(ctx, raw)
}

// Filter re-applies the policy to a set. Filtering an already filtered set
// returns an equal set and a clean report.
func (v *Validator) Filter(ctx context.Context, set style.DirectiveSet) (style.DirectiveSet, Report) {
	report := Report{Directives: len(set)}
	out := make(style.DirectiveSet, 0, len(set))
	for i, d := range set {
		candidates := make([]candidate, len(d.Declarations))
		for j, decl := range d.Declarations {
			candidates[j] = candidate{decl: decl, isText: true}
		}
		if kept, ok := v.filterDirective(ctx, i, d.Selector, candidates, &report); ok {
			out = append(out, kept)
		}
	}
	return out, report
}

type candidate struct {
	decl   style.Declaration
	isText bool
}

// filterDirective applies the selector and declaration checks to one
// directive. It reports false when nothing of the directive survives.
func (v *Validator) filterDirective(ctx context.Context, index int, selector string, candidates []candidate, report *Report) (style.Directive, bool) {
	if verdict := v.policy.CheckSelector(selector); !verdict.Allowed() {
		v.drop(ctx, report, Drop{Directive: index, Selector: selector, Reason: verdict.Reason, Pattern: verdict.Pattern})
		report.DroppedDirectives++
		return style.Directive{}, false
	}

	kept := make([]style.Declaration, 0, len(candidates))
	for _, c := range candidates {
		verdict := v.check(c)
		if verdict.Allowed() {
			kept = append(kept, c.decl)
			continue
		}
		v.drop(ctx, report, Drop{
			Directive: index,
			Selector:  selector,
			Property:  c.decl.Property,
			Value:     c.decl.Value,
			Reason:    verdict.Reason,
			Pattern:   verdict.Pattern,
		})
		report.DroppedDeclarations++
	}

	if len(kept) == 0 {
		v.drop(ctx, report, Drop{Directive: index, Selector: selector, Reason: policy.ReasonNoDeclarations})
		report.DroppedDirectives++
		return style.Directive{}, false
	}

	return style.Directive{Selector: selector, Declarations: kept}, true
}

func (v *Validator) check(c candidate) policy.Verdict {
	if !v.policy.AllowsProperty(c.decl.Property) {
		return policy.Verdict{Reason: policy.ReasonPropertyNotAllowed}
	}
	if !c.isText {
		return policy.Verdict{Reason: policy.ReasonValueType}
	}
	return v.policy.CheckDeclaration(c.decl.Property, c.decl.Value)
}

func (v *Validator) drop(ctx context.Context, report *Report, d Drop) {
	report.Drops = append(report.Drops, d)
	recordDrop(d.Reason)
	v.logger.DebugContext(ctx, "policy dropped style",
		"directive", d.Directive,
		"selector", d.Selector,
		"property", d.Property,
		"reason", string(d.Reason),
		"pattern", d.Pattern,
	)
}

func (v *Validator) finish(ctx context.Context, report Report, kept int) {
	switch {
	case report.Clean():
		recordOutcome(outcomeAccepted)
	case kept == 0:
		recordOutcome(outcomeEmpty)
	default:
		recordOutcome(outcomePartial)
	}

	if !report.Clean() {
		v.logger.InfoContext(ctx, "policy filtered response",
			"directives", report.Directives,
			"kept", kept,
			"dropped_directives", report.DroppedDirectives,
			"dropped_declarations", report.DroppedDeclarations,
		)
	}
}

// textValue extracts a declaration value. Strings are used as-is and
// numbers by their literal text; any other JSON type is not text.
func textValue(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return string(trimmed), false
	}
}

// schemaDetail describes the first envelope violation in the terms callers
// use, falling back to a generic message.
func schemaDetail(instance any) string {
	obj, ok := instance.(map[string]any)
	if !ok {
		return "response must be an object"
	}
	entries, ok := obj["selectors"].([]any)
	if !ok {
		return "response must contain a selectors array"
	}
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			return "each selectors entry must be an object"
		}
		if s, ok := entry["selector"].(string); !ok || s == "" {
			return "each selector must have a non-empty selector string"
		}
		if _, ok := entry["styles"].(map[string]any); !ok {
			return "each selector must have a styles object"
		}
	}
	return "response does not match the expected shape"
}
