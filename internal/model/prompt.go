// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brushcss/brush/internal/capture"
	"github.com/brushcss/brush/internal/style/policy"
)

// PromptTextLimit caps the page text quoted in the user prompt.
const PromptTextLimit = 1000

// SystemPrompt instructs the model to answer with the response envelope,
// using only the properties p allows.
func SystemPrompt(p *policy.Policy) string {
	var b strings.Builder
	b.WriteString(`You are a CSS design assistant that helps users modify web page designs based on their natural language requests.

Your task is to analyze the current page structure and styles, then generate CSS modifications to achieve the user's design goal.

Constraints:
- Only use the safe CSS properties listed below
- Target existing HTML elements using their current selectors
- Generate minimal changes to achieve the goal
- Output must be valid JSON with the schema below

Safe CSS Properties (use only these, spelled exactly as shown):
`)
	for _, line := range wrap(p.AllowedProperties(), 72) {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(`
Output Format (JSON):
{
  "selectors": [
    {
      "selector": "css-selector-string",
      "styles": {
        "propertyName": "value",
        "propertyName2": "value2"
      }
    }
  ]
}`)
	return b.String()
}

// UserPrompt describes the page and the request.
func UserPrompt(snap capture.Snapshot, request string) string {
	structure, _ := json.MarshalIndent(snap.Structure, "", "  ")
	styles := []byte("{}")
	if snap.Styles != nil {
		styles, _ = json.MarshalIndent(snap.Styles, "", "  ")
	}

	return fmt.Sprintf(`CURRENT PAGE STATE:
URL: %s
Title: %s
Viewport: %dx%d

HTML STRUCTURE (visible elements):
%s

COMPUTED STYLES:
%s

TEXT CONTENT (first %d chars):
%s

USER'S DESIGN REQUEST:
%s

Please generate CSS modifications to achieve this design goal. Target specific existing elements and use only the safe CSS properties listed in your instructions.`,
		snap.URL, snap.Title, snap.Viewport.Width, snap.Viewport.Height,
		structure, styles,
		PromptTextLimit, capture.Truncate(snap.Text, PromptTextLimit),
		request)
}

// wrap joins words with ", " into lines of at most width bytes.
func wrap(words []string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+2+len(w) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(", ")
		}
		line.WriteString(w)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
