// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package document

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/samber/oops"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	headSelector     = cascadia.MustCompile("head")
	artifactSelector = cascadia.MustCompile("style[" + ArtifactAttr + "]")
)

// HTML is an in-memory HTML document. Artifacts become <style> elements
// appended to <head>.
//
// HTML is safe for concurrent use.
type HTML struct {
	mu   sync.RWMutex
	root *html.Node
	url  string
}

var _ Document = (*HTML)(nil)

// ParseHTML parses an HTML document. The parser always synthesizes <head>
// and <body> if the source omits them.
func ParseHTML(r io.Reader, url string) (*HTML, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, oops.Code(CodeDocumentFailure).With("url", url).Wrapf(err, "parse html")
	}
	return &HTML{root: root, url: url}, nil
}

// FromNode wraps an existing node tree.
func FromNode(root *html.Node, url string) *HTML {
	return &HTML{root: root, url: url}
}

// URL returns the address the document was loaded from.
func (d *HTML) URL() string {
	return d.url
}

// InsertStyle appends a <style> element carrying id to <head>. The text
// must parse as a stylesheet.
func (d *HTML) InsertStyle(ctx context.Context, id, text string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code(CodeDocumentFailure).Wrap(err)
	}
	if _, err := parser.Parse(text); err != nil {
		return oops.Code(CodeInvalidStyle).With("artifact_id", id).Wrapf(err, "parse stylesheet")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	head := headSelector.MatchFirst(d.root)
	if head == nil {
		return ErrNoInsertionPoint()
	}
	if d.find(id) != nil {
		return ErrDuplicateID(id)
	}

	el := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr: []html.Attribute{
			{Key: "id", Val: id},
			{Key: ArtifactAttr, Val: ""},
		},
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	head.AppendChild(el)
	return nil
}

// RemoveStyle detaches the artifact element carrying id.
func (d *HTML) RemoveStyle(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code(CodeDocumentFailure).Wrap(err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	el := d.find(id)
	if el == nil {
		return ErrArtifactNotFound(id)
	}
	el.Parent.RemoveChild(el)
	return nil
}

// ArtifactIDs returns the ids of the artifacts present, in document order.
func (d *HTML) ArtifactIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	nodes := artifactSelector.MatchAll(d.root)
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, attr(n, "id"))
	}
	return ids
}

// Stylesheet returns the parsed rules of the artifact carrying id.
func (d *HTML) Stylesheet(id string) (*css.Stylesheet, error) {
	d.mu.RLock()
	el := d.find(id)
	var text string
	if el != nil && el.FirstChild != nil {
		text = el.FirstChild.Data
	}
	d.mu.RUnlock()

	if el == nil {
		return nil, ErrArtifactNotFound(id)
	}
	sheet, err := parser.Parse(text)
	if err != nil {
		return nil, oops.Code(CodeInvalidStyle).With("artifact_id", id).Wrapf(err, "parse stylesheet")
	}
	return sheet, nil
}

// Inspect calls fn with the document tree under a read lock. fn must not
// retain or modify the tree.
func (d *HTML) Inspect(fn func(root *html.Node)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.root)
}

// Render writes the document as HTML.
func (d *HTML) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := html.Render(w, d.root); err != nil {
		return oops.Code(CodeDocumentFailure).Wrapf(err, "render html")
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (d *HTML) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// find returns the artifact element with the given id. Callers hold mu.
func (d *HTML) find(id string) *html.Node {
	for _, n := range artifactSelector.MatchAll(d.root) {
		if attr(n, "id") == id {
			return n
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
