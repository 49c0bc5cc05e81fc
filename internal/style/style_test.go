// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalProperty(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single word", "color", "color"},
		{"two words", "backgroundColor", "background-color"},
		{"three words", "borderTopLeftRadius", "border-top-left-radius"},
		{"already hyphenated", "font-size", "font-size"},
		{"vendor prefix", "WebkitBackdropFilter", "-webkit-backdrop-filter"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalProperty(tt.input))
		})
	}
}

func TestDirectiveRule(t *testing.T) {
	d := Directive{
		Selector: ".h",
		Declarations: []Declaration{
			{Property: "color", Value: "blue"},
			{Property: "fontSize", Value: "16px"},
		},
	}

	assert.Equal(t, ".h { color: blue; font-size: 16px; }", d.Rule())
}

func TestDirectiveSetRender(t *testing.T) {
	set := DirectiveSet{
		{Selector: "body", Declarations: []Declaration{{Property: "backgroundColor", Value: "#111"}}},
		{Selector: "h1", Declarations: []Declaration{{Property: "color", Value: "white"}}},
		{Selector: "body", Declarations: []Declaration{{Property: "lineHeight", Value: "1.6"}}},
	}

	want := "body { background-color: #111; }\nh1 { color: white; }\nbody { line-height: 1.6; }"
	assert.Equal(t, want, set.Render())
	assert.Equal(t, 3, set.DeclarationCount())
	assert.False(t, set.Empty())
}

func TestDirectiveSetEmpty(t *testing.T) {
	var set DirectiveSet
	assert.True(t, set.Empty())
	assert.Equal(t, "", set.Render())
	assert.Equal(t, 0, set.DeclarationCount())
}
