// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package capture summarizes a page for the model prompt.
//
// A Snapshot lists the visible elements of interest, the styles in effect
// on a few key selectors and the page's readable text. All parts are
// capped so the prompt stays small.
package capture

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Snapshot limits.
const (
	MaxElements    = 50
	MaxClasses     = 5
	MaxElementText = 100
	MaxText        = 10000
)

// CodeCaptureError is returned when a page cannot be summarized.
const CodeCaptureError = "CAPTURE_ERROR"

// StructureTags are the elements listed in a snapshot, in listing order.
var StructureTags = []string{
	"body", "header", "nav", "main", "article", "section", "aside", "footer",
	"h1", "h2", "h3", "h4", "h5", "h6", "p", "a", "button", "input", "img", "div",
}

// StyleSelectors are the selectors whose styles a snapshot reports.
var StyleSelectors = []string{"body", "h1", "h2", "h3", "p", "a", "button"}

// TextSelector picks the elements whose text forms Snapshot.Text.
const TextSelector = "h1, h2, h3, h4, h5, h6, p, li"

// Viewport is the visible area in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is an element's layout box.
type Rect struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Element is one listed element.
type Element struct {
	Tag      string   `json:"tag"`
	ID       string   `json:"id,omitempty"`
	Classes  []string `json:"classes"`
	Text     string   `json:"text,omitempty"`
	Visible  bool     `json:"visible"`
	Position *Rect    `json:"position,omitempty"`
}

// Styles holds the style properties reported per selector.
type Styles struct {
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
	FontSize        string `json:"fontSize,omitempty"`
	LineHeight      string `json:"lineHeight,omitempty"`
	Margin          string `json:"margin,omitempty"`
	Padding         string `json:"padding,omitempty"`
}

// Snapshot summarizes a page.
type Snapshot struct {
	URL       string                                 `json:"url"`
	Title     string                                 `json:"title"`
	Viewport  Viewport                               `json:"viewport"`
	Structure []Element                              `json:"structure"`
	Styles    *orderedmap.OrderedMap[string, Styles] `json:"styles"`
	Text      string                                 `json:"text"`
}

// Capturer produces snapshots of one page.
type Capturer interface {
	Capture(ctx context.Context) (Snapshot, error)
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// collapse folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func errCapture(url string, cause error) error {
	return oops.Code(CodeCaptureError).With("url", url).Wrapf(cause, "capture page")
}
