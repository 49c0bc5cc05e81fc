// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package policy

// CurrentVersion is the table format written by this release.
const CurrentVersion = "1.0.0"

// PatternSpec names one deny pattern. Pattern is a regular expression that
// is matched case-insensitively anywhere in the candidate string.
type PatternSpec struct {
	Name    string `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Pattern string `yaml:"pattern" json:"pattern" jsonschema:"minLength=1"`
}

// Table is the declarative form of a safety policy, as stored in a policy
// file. It is compiled into a Policy by New.
type Table struct {
	Version                string        `yaml:"version" json:"version" jsonschema:"minLength=1"`
	AllowedProperties      []string      `yaml:"allowed_properties" json:"allowed_properties"`
	DeniedValuePatterns    []PatternSpec `yaml:"denied_value_patterns" json:"denied_value_patterns"`
	DeniedSelectorPatterns []PatternSpec `yaml:"denied_selector_patterns,omitempty" json:"denied_selector_patterns,omitempty"`
}

// DefaultTable returns the built-in policy table.
func DefaultTable() Table {
	return Table{
		Version: CurrentVersion,
		AllowedProperties: []string{
			// colors and background
			"color", "backgroundColor", "backgroundImage", "backgroundSize",
			"backgroundPosition", "backgroundRepeat", "opacity",

			// typography
			"fontFamily", "fontSize", "fontWeight", "fontStyle",
			"lineHeight", "letterSpacing", "textAlign", "textDecoration",
			"textTransform", "textShadow",

			// spacing
			"padding", "paddingTop", "paddingRight", "paddingBottom", "paddingLeft",
			"margin", "marginTop", "marginRight", "marginBottom", "marginLeft",

			// borders and effects
			"border", "borderColor", "borderWidth", "borderStyle", "borderRadius",
			"boxShadow", "filter", "backdropFilter",

			// sizing
			"maxWidth", "minWidth", "maxHeight", "minHeight",
		},
		DeniedValuePatterns: []PatternSpec{
			{Name: "expression", Pattern: `expression\s*\(`},
			{Name: "script-uri", Pattern: `javascript\s*:`},
			{Name: "vbscript-uri", Pattern: `vbscript\s*:`},
			{Name: "behavior", Pattern: `behavior\s*:`},
			{Name: "moz-binding", Pattern: `-moz-binding`},
			{Name: "script-tag", Pattern: `<\s*script`},
			{Name: "closing-tag", Pattern: `<\s*/`},
			{Name: "eval", Pattern: `eval\s*\(`},
			{Name: "import", Pattern: `@import`},
			// escapes can spell any of the above without matching them
			{Name: "escape", Pattern: `\\`},
			{Name: "comment", Pattern: `/\*`},
			{Name: "declaration-breakout", Pattern: `[;{}]`},
			{Name: "control-character", Pattern: `[\x00-\x08\x0B\x0E-\x1F\x7F]`},
		},
		DeniedSelectorPatterns: []PatternSpec{
			{Name: "blank", Pattern: `^\s*$`},
			{Name: "rule-breakout", Pattern: `[;{}]`},
			{Name: "markup", Pattern: `<`},
			{Name: "comment", Pattern: `/\*`},
			{Name: "at-rule", Pattern: `@`},
		},
	}
}
