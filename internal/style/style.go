// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package style

import (
	"strings"
	"unicode"
)

// Declaration is one property/value pair of a directive.
type Declaration struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Directive is one selector plus the declarations proposed for it.
// Declarations keep the order in which the model produced them.
type Directive struct {
	Selector     string        `json:"selector"`
	Declarations []Declaration `json:"declarations"`
}

// Rule renders the directive as a single stylesheet rule:
//
//	selector { property: value; other-property: value; }
func (d Directive) Rule() string {
	var b strings.Builder
	b.WriteString(d.Selector)
	b.WriteString(" {")
	for _, decl := range d.Declarations {
		b.WriteByte(' ')
		b.WriteString(CanonicalProperty(decl.Property))
		b.WriteString(": ")
		b.WriteString(decl.Value)
		b.WriteByte(';')
	}
	b.WriteString(" }")
	return b.String()
}

// DirectiveSet is the policy-compliant, ordered collection of directives
// taken from one model response. Selectors may repeat.
type DirectiveSet []Directive

// Empty reports whether the set holds no directives.
func (s DirectiveSet) Empty() bool {
	return len(s) == 0
}

// DeclarationCount returns the number of declarations across all directives.
func (s DirectiveSet) DeclarationCount() int {
	n := 0
	for _, d := range s {
		n += len(d.Declarations)
	}
	return n
}

// Render synthesizes the stylesheet text for the set: one rule per
// directive in input order, separated by newlines.
func (s DirectiveSet) Render() string {
	rules := make([]string, len(s))
	for i, d := range s {
		rules[i] = d.Rule()
	}
	return strings.Join(rules, "\n")
}

// CanonicalProperty maps a medial-capitalized property name to its
// hyphenated stylesheet form: backgroundColor becomes background-color.
// Names that are already hyphenated pass through unchanged.
func CanonicalProperty(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
