// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/samber/oops"
)

// Script results reported by the in-page mutation scripts.
const (
	resultOK        = "ok"
	resultNoHead    = "no-head"
	resultDuplicate = "duplicate"
	resultMissing   = "missing"
)

// CodeBrowserUnavailable is returned when no Chromium binary is installed.
const CodeBrowserUnavailable = "BROWSER_UNAVAILABLE"

// DefaultMutationTimeout bounds one style insertion or removal.
const DefaultMutationTimeout = 10 * time.Second

// evalFunc runs a script in the page and returns its string result.
type evalFunc func(ctx context.Context, script string) (string, error)

// Browser is a page in a headless Chromium tab, driven over the DevTools
// protocol. Artifacts become <style> elements appended to document.head.
//
// Insertions and removals run to completion once started: the caller's
// context does not cut them short, only the mutation timeout does. An
// insertion that fails or times out is followed by a removal of the same
// id so no stray element outlives the error.
type Browser struct {
	tab             context.Context
	cancel          context.CancelFunc
	url             string
	eval            evalFunc
	mutationTimeout time.Duration
}

var _ Document = (*Browser)(nil)

// BrowserOptions returns the allocator flags used for headless tabs.
func BrowserOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
}

// BrowserAvailable reports whether a Chromium binary can be found.
func BrowserAvailable() bool {
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// OpenBrowser starts a headless tab and navigates it to url. The tab lives
// until Close is called or parent is cancelled.
func OpenBrowser(parent context.Context, url string, opts ...chromedp.ExecAllocatorOption) (*Browser, error) {
	if !BrowserAvailable() {
		return nil, oops.Code(CodeBrowserUnavailable).Errorf("chromium not installed")
	}
	if len(opts) == 0 {
		opts = BrowserOptions()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tab, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		tabCancel()
		allocCancel()
		return nil, oops.Code(CodeDocumentFailure).With("url", url).Wrapf(err, "open page")
	}

	b := &Browser{
		tab: tab,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		url:             url,
		mutationTimeout: DefaultMutationTimeout,
	}
	b.eval = b.evaluate
	return b, nil
}

// URL returns the address the tab was opened at.
func (b *Browser) URL() string {
	return b.url
}

// Run executes DevTools actions in the tab. ctx bounds the call; the tab
// itself outlives it.
func (b *Browser) Run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return oops.Code(CodeDocumentFailure).Wrap(err)
	}

	runCtx, cancel := context.WithCancel(b.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return oops.Code(CodeDocumentFailure).With("url", b.url).Wrap(err)
	}
	return nil
}

func (b *Browser) evaluate(ctx context.Context, script string) (string, error) {
	var result string
	err := b.Run(ctx, chromedp.Evaluate(script, &result))
	return result, err
}

// mutate runs a mutation script to completion. Cancelling ctx does not
// interrupt it; the mutation timeout does.
func (b *Browser) mutate(ctx context.Context, script string) (string, error) {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.mutationTimeout)
	defer cancel()
	result, err := b.eval(mctx, script)
	if err != nil {
		return "", oops.Code(CodeDocumentFailure).With("url", b.url).Wrap(err)
	}
	return result, nil
}

// InsertStyle appends a <style> element carrying id to document.head.
func (b *Browser) InsertStyle(ctx context.Context, id, text string) error {
	result, err := b.mutate(ctx, insertScript(id, text))
	if err != nil {
		return b.rollback(ctx, id, err)
	}
	switch result {
	case resultOK:
		return nil
	case resultNoHead:
		return ErrNoInsertionPoint()
	case resultDuplicate:
		return ErrDuplicateID(id)
	default:
		return b.rollback(ctx, id, oops.Code(CodeDocumentFailure).With("result", result).Errorf("unexpected insert result"))
	}
}

// rollback removes id after a failed insertion whose script may still have
// reached the page. cause is returned, joined with any removal failure.
func (b *Browser) rollback(ctx context.Context, id string, cause error) error {
	result, err := b.mutate(ctx, removeScript(id))
	if err != nil {
		return errors.Join(cause, oops.Code(CodeDocumentFailure).With("artifact_id", id).Wrapf(err, "roll back insert"))
	}
	if result != resultOK && result != resultMissing {
		return errors.Join(cause, oops.Code(CodeDocumentFailure).With("artifact_id", id).With("result", result).Errorf("roll back insert"))
	}
	return cause
}

// RemoveStyle removes the artifact element carrying id.
func (b *Browser) RemoveStyle(ctx context.Context, id string) error {
	result, err := b.mutate(ctx, removeScript(id))
	if err != nil {
		return err
	}
	switch result {
	case resultOK:
		return nil
	case resultMissing:
		return ErrArtifactNotFound(id)
	default:
		return oops.Code(CodeDocumentFailure).With("result", result).Errorf("unexpected remove result")
	}
}

// OuterHTML returns the serialized document.
func (b *Browser) OuterHTML(ctx context.Context) (string, error) {
	var out string
	if err := b.Run(ctx, chromedp.OuterHTML("html", &out, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return out, nil
}

// Close shuts the tab and its browser down.
func (b *Browser) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// insertScript builds the page script for InsertStyle. Arguments are
// embedded as JSON literals, never concatenated as source.
func insertScript(id, text string) string {
	return fmt.Sprintf(`(() => {
  const id = %s, text = %s;
  const head = document.head;
  if (!head) return %q;
  if (document.getElementById(id)) return %q;
  const el = document.createElement("style");
  el.id = id;
  el.setAttribute(%q, "");
  el.textContent = text;
  head.appendChild(el);
  return %q;
})()`, jsString(id), jsString(text), resultNoHead, resultDuplicate, ArtifactAttr, resultOK)
}

// removeScript builds the page script for RemoveStyle.
func removeScript(id string) string {
	return fmt.Sprintf(`(() => {
  const el = document.getElementById(%s);
  if (!el || !el.hasAttribute(%q)) return %q;
  el.remove();
  return %q;
})()`, jsString(id), ArtifactAttr, resultMissing, resultOK)
}

// jsString encodes s as a JavaScript string literal. json.Marshal escapes
// <, > and & so the literal cannot close a surrounding script element.
func jsString(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(data)
}
