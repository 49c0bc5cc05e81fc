// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/brushcss/brush/internal/capture"
	"github.com/brushcss/brush/internal/style/policy"
)

func TestSystemPromptListsPolicyProperties(t *testing.T) {
	p := policy.Default()
	prompt := SystemPrompt(p)

	for _, prop := range p.AllowedProperties() {
		assert.Contains(t, prompt, prop)
	}
	assert.Contains(t, prompt, `"selectors": [`)
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "- ") && strings.Contains(line, ", ") {
			assert.LessOrEqual(t, len(line), 74)
		}
	}
}

func TestSystemPromptFollowsCustomPolicy(t *testing.T) {
	table := policy.DefaultTable()
	table.AllowedProperties = []string{"color"}
	p, err := policy.New(table)
	require.NoError(t, err)

	prompt := SystemPrompt(p)
	assert.Contains(t, prompt, "- color\n")
	assert.NotContains(t, prompt, "fontSize")
}

func TestUserPrompt(t *testing.T) {
	styles := orderedmap.New[string, capture.Styles]()
	styles.Set("body", capture.Styles{Color: "rgb(0, 0, 0)"})
	snap := capture.Snapshot{
		URL:      "https://acme.example/",
		Title:    "Acme",
		Viewport: capture.Viewport{Width: 1024, Height: 768},
		Structure: []capture.Element{
			{Tag: "h1", Classes: []string{"title"}, Text: "Hello", Visible: true},
		},
		Styles: styles,
		Text:   strings.Repeat("é", 1500),
	}

	prompt := UserPrompt(snap, "make the heading bigger")
	assert.Contains(t, prompt, "URL: https://acme.example/\n")
	assert.Contains(t, prompt, "Viewport: 1024x768\n")
	assert.Contains(t, prompt, `"tag": "h1"`)
	assert.Contains(t, prompt, `"color": "rgb(0, 0, 0)"`)
	assert.Contains(t, prompt, strings.Repeat("é", 1000)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("é", 1001))
	assert.True(t, strings.HasSuffix(prompt, "listed in your instructions."))
	assert.Contains(t, prompt, "USER'S DESIGN REQUEST:\nmake the heading bigger\n")
}

func TestUserPromptWithoutStyles(t *testing.T) {
	prompt := UserPrompt(capture.Snapshot{}, "x")
	assert.Contains(t, prompt, "COMPUTED STYLES:\n{}\n")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"a, b", "c"}, wrap([]string{"a", "b", "c"}, 5))
	assert.Nil(t, wrap(nil, 10))
}
