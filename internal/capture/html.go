// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package capture

import (
	"context"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/brushcss/brush/internal/document"
)

// DefaultViewport is reported for documents that are never laid out.
var DefaultViewport = Viewport{Width: 1280, Height: 800}

var (
	titleSelector = cascadia.MustCompile("title")
	styleSelector = cascadia.MustCompile("style")
	textSelector  = cascadia.MustCompile(TextSelector)
)

// HTMLCapturer snapshots an in-memory document. Without layout, every
// element that is not hidden counts as visible, and styles are the
// declarations of matching <style> rules and inline style attributes in
// document order.
type HTMLCapturer struct {
	Doc      *document.HTML
	Viewport Viewport
}

var _ Capturer = (*HTMLCapturer)(nil)

// Capture implements Capturer.
func (c *HTMLCapturer) Capture(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, errCapture(c.Doc.URL(), err)
	}
	viewport := c.Viewport
	if viewport == (Viewport{}) {
		viewport = DefaultViewport
	}

	snap := Snapshot{URL: c.Doc.URL(), Viewport: viewport}
	c.Doc.Inspect(func(root *html.Node) {
		if t := titleSelector.MatchFirst(root); t != nil {
			snap.Title = collapse(textContent(t))
		}
		snap.Structure = structure(root)
		snap.Styles = declaredStyles(root)
		snap.Text = pageText(root)
	})
	return snap, nil
}

func structure(root *html.Node) []Element {
	var out []Element
	for _, tag := range StructureTags {
		sel := cascadia.MustCompile(tag)
		for _, n := range sel.MatchAll(root) {
			if len(out) == MaxElements {
				return out
			}
			out = append(out, element(n))
		}
	}
	return out
}

func element(n *html.Node) Element {
	classes := strings.Fields(attr(n, "class"))
	if len(classes) > MaxClasses {
		classes = classes[:MaxClasses]
	}
	if classes == nil {
		classes = []string{}
	}
	return Element{
		Tag:     n.Data,
		ID:      attr(n, "id"),
		Classes: classes,
		Text:    Truncate(collapse(textContent(n)), MaxElementText),
		Visible: !hidden(n),
	}
}

func pageText(root *html.Node) string {
	var b strings.Builder
	for _, n := range textSelector.MatchAll(root) {
		if hidden(n) {
			continue
		}
		b.WriteString(collapse(textContent(n)))
		b.WriteByte(' ')
		if b.Len() > MaxText {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// declaredStyles reports, for each key selector, the reported properties
// as declared on the first matching element.
func declaredStyles(root *html.Node) *orderedmap.OrderedMap[string, Styles] {
	rules := sheetRules(root)
	out := orderedmap.New[string, Styles]()
	for _, selector := range StyleSelectors {
		el := cascadia.MustCompile(selector).MatchFirst(root)
		if el == nil {
			continue
		}
		var st Styles
		for _, r := range rules {
			if r.matcher.Match(el) {
				st.apply(r.declarations)
			}
		}
		if inline := attr(el, "style"); inline != "" {
			if decls, err := parser.ParseDeclarations(inline); err == nil {
				st.apply(decls)
			}
		}
		out.Set(selector, st)
	}
	return out
}

type sheetRule struct {
	matcher      cascadia.Matcher
	declarations []*css.Declaration
}

// sheetRules collects the qualified rules of every <style> element whose
// selectors parse. At-rules are skipped.
func sheetRules(root *html.Node) []sheetRule {
	var rules []sheetRule
	for _, n := range styleSelector.MatchAll(root) {
		sheet, err := parser.Parse(textContent(n))
		if err != nil {
			continue
		}
		for _, r := range sheet.Rules {
			if r.Kind != css.QualifiedRule {
				continue
			}
			group, err := cascadia.ParseGroup(r.Prelude)
			if err != nil {
				continue
			}
			rules = append(rules, sheetRule{matcher: group, declarations: r.Declarations})
		}
	}
	return rules
}

func (s *Styles) apply(decls []*css.Declaration) {
	for _, d := range decls {
		switch d.Property {
		case "color":
			s.Color = d.Value
		case "background-color", "background":
			s.BackgroundColor = d.Value
		case "font-family":
			s.FontFamily = d.Value
		case "font-size":
			s.FontSize = d.Value
		case "line-height":
			s.LineHeight = d.Value
		case "margin":
			s.Margin = d.Value
		case "padding":
			s.Padding = d.Value
		}
	}
}

// hidden reports whether n or an ancestor is hidden by attribute or inline
// display:none.
func hidden(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range n.Attr {
			if a.Key == "hidden" {
				return true
			}
			if a.Key == "style" && strings.Contains(strings.ReplaceAll(strings.ToLower(a.Val), " ", ""), "display:none") {
				return true
			}
		}
	}
	return false
}

// textContent concatenates the text below n, skipping script and style
// descendants.
func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(&b, c)
	}
	return b.String()
}

func appendText(b *strings.Builder, n *html.Node) {
	switch {
	case n.Type == html.TextNode:
		b.WriteString(n.Data)
	case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendText(b, c)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
