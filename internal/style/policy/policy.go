// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package policy compiles and evaluates the safety policy that decides which
// style declarations may reach a document.
//
// A policy has three parts:
//   - an allow-list of property names, matched exactly and case-sensitively
//     against the medial-capitalized names the model produces
//   - an ordered list of value deny patterns
//   - an ordered list of selector deny patterns
//
// Deny patterns are unanchored and case-insensitive, so they act as
// substring matches. Over-blocking is accepted; under-blocking is not.
package policy

import (
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// supportedVersions constrains the version field of loaded tables.
const supportedVersions = "^1.0.0"

// requiredDenials must each be rejected by any value pattern list.
var requiredDenials = []string{
	"expression(",
	"javascript:",
	"behavior:",
	"<script",
	"eval(",
}

// Reason explains why a selector or declaration was dropped.
type Reason string

// Drop reasons.
const (
	ReasonPropertyNotAllowed Reason = "property_not_allowed"
	ReasonValueDenied        Reason = "value_denied"
	ReasonValueType          Reason = "value_not_text"
	ReasonSelectorDenied     Reason = "selector_denied"
	ReasonUnbalanced         Reason = "unbalanced"
	ReasonNoDeclarations     Reason = "no_safe_declarations"
)

// Verdict is the outcome of checking one selector or declaration.
// The zero Verdict allows.
type Verdict struct {
	Reason  Reason
	Pattern string // name of the deny pattern that matched, if any
}

// Allowed reports whether the checked item passes the policy.
func (v Verdict) Allowed() bool {
	return v.Reason == ""
}

// Pattern is a compiled deny pattern.
type Pattern struct {
	Name   string
	Source string
	re     *regexp.Regexp
}

// Match reports whether s contains the pattern, ignoring case.
func (p Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}

// Policy is a compiled, immutable safety policy.
// Policy is safe for concurrent use.
type Policy struct {
	table     Table
	allowed   map[string]struct{}
	values    []Pattern
	selectors []Pattern
}

// New compiles a table into a Policy. The table must allow at least one
// property and its value patterns must reject every required denial.
func New(t Table) (*Policy, error) {
	if len(t.AllowedProperties) == 0 {
		return nil, errInvalid("policy allows no properties")
	}

	p := &Policy{
		table:   cloneTable(t),
		allowed: make(map[string]struct{}, len(t.AllowedProperties)),
	}
	for _, name := range t.AllowedProperties {
		if name == "" {
			return nil, errInvalid("allowed property names cannot be empty")
		}
		p.allowed[name] = struct{}{}
	}

	var err error
	if p.values, err = compilePatterns("denied_value_patterns", t.DeniedValuePatterns); err != nil {
		return nil, err
	}
	if p.selectors, err = compilePatterns("denied_selector_patterns", t.DeniedSelectorPatterns); err != nil {
		return nil, err
	}

	for _, probe := range requiredDenials {
		if _, denied := p.matchValue(probe); !denied {
			return nil, oops.Code(CodeInvalidPolicy).
				With("probe", probe).
				Errorf("value patterns do not reject %q", probe)
		}
	}

	return p, nil
}

// Default returns the compiled built-in policy.
func Default() *Policy {
	p, err := New(DefaultTable())
	if err != nil {
		panic(err)
	}
	return p
}

// Load parses a YAML policy table and compiles it.
func Load(data []byte) (*Policy, error) {
	if len(data) == 0 {
		return nil, errInvalid("policy data is empty")
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, oops.Code(CodeInvalidPolicy).Wrapf(err, "invalid policy YAML")
	}

	if err := checkVersion(t.Version); err != nil {
		return nil, err
	}

	return New(t)
}

// LoadFile reads and compiles the policy table at path.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, oops.Code(CodeInvalidPolicy).With("path", path).Wrapf(err, "read policy file")
	}
	p, err := Load(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return p, nil
}

// Marshal encodes a table as YAML.
func Marshal(t Table) ([]byte, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, oops.Wrapf(err, "marshal policy table")
	}
	return data, nil
}

// Table returns a copy of the table the policy was compiled from.
func (p *Policy) Table() Table {
	return cloneTable(p.table)
}

// AllowedProperties returns the allow-list in table order.
func (p *Policy) AllowedProperties() []string {
	return append([]string(nil), p.table.AllowedProperties...)
}

// AllowsProperty reports whether name is on the allow-list.
func (p *Policy) AllowsProperty(name string) bool {
	_, ok := p.allowed[name]
	return ok
}

// CheckDeclaration evaluates one property/value pair. The property check
// runs first; the value is only inspected for allowed properties. Values
// with an unclosed quote or bracket are rejected after the deny patterns.
func (p *Policy) CheckDeclaration(property, value string) Verdict {
	if !p.AllowsProperty(property) {
		return Verdict{Reason: ReasonPropertyNotAllowed}
	}
	if pat, denied := p.matchValue(value); denied {
		return Verdict{Reason: ReasonValueDenied, Pattern: pat.Name}
	}
	if !balanced(value) {
		return Verdict{Reason: ReasonUnbalanced}
	}
	return Verdict{}
}

// CheckSelector evaluates a selector against the selector deny patterns,
// then rejects it if a quote or bracket is left open.
func (p *Policy) CheckSelector(selector string) Verdict {
	for _, pat := range p.selectors {
		if pat.Match(selector) {
			return Verdict{Reason: ReasonSelectorDenied, Pattern: pat.Name}
		}
	}
	if !balanced(selector) {
		return Verdict{Reason: ReasonUnbalanced}
	}
	return Verdict{}
}

func (p *Policy) matchValue(value string) (Pattern, bool) {
	for _, pat := range p.values {
		if pat.Match(value) {
			return pat, true
		}
	}
	return Pattern{}, false
}

func compilePatterns(field string, specs []PatternSpec) ([]Pattern, error) {
	out := make([]Pattern, 0, len(specs))
	for i, spec := range specs {
		if spec.Pattern == "" {
			return nil, oops.Code(CodeInvalidPolicy).
				With("field", field).
				With("index", i).
				Errorf("pattern %d in %s is empty", i, field)
		}
		re, err := regexp.Compile("(?i)" + spec.Pattern)
		if err != nil {
			return nil, oops.Code(CodeInvalidPolicy).
				With("field", field).
				With("name", spec.Name).
				Wrapf(err, "compile pattern %q", spec.Pattern)
		}
		out = append(out, Pattern{Name: spec.Name, Source: spec.Pattern, re: re})
	}
	return out, nil
}

func checkVersion(version string) error {
	if version == "" {
		return errInvalid("policy version is required")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return oops.Code(CodeInvalidPolicy).With("version", version).Wrapf(err, "invalid policy version")
	}
	c, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return oops.Wrapf(err, "invalid version constraint")
	}
	if !c.Check(v) {
		return oops.Code(CodeInvalidPolicy).
			With("version", version).
			With("supported", supportedVersions).
			Errorf("policy version %s is not supported", version)
	}
	return nil
}

func cloneTable(t Table) Table {
	return Table{
		Version:                t.Version,
		AllowedProperties:      append([]string(nil), t.AllowedProperties...),
		DeniedValuePatterns:    append([]PatternSpec(nil), t.DeniedValuePatterns...),
		DeniedSelectorPatterns: append([]PatternSpec(nil), t.DeniedSelectorPatterns...),
	}
}
