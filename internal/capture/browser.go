// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/brushcss/brush/internal/document"
)

// BrowserCapturer snapshots a live tab using layout and computed styles.
type BrowserCapturer struct {
	Browser *document.Browser
}

var _ Capturer = (*BrowserCapturer)(nil)

// Capture implements Capturer.
func (c *BrowserCapturer) Capture(ctx context.Context) (Snapshot, error) {
	var raw []byte
	if err := c.Browser.Run(ctx, chromedp.Evaluate(captureScript(), &raw)); err != nil {
		return Snapshot{}, errCapture(c.Browser.URL(), err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, errCapture(c.Browser.URL(), err)
	}
	return snap, nil
}

// captureScript builds the in-page script producing a Snapshot. Elements
// count when their box starts within 100px of the viewport.
func captureScript() string {
	tags, _ := json.Marshal(StructureTags)
	selectors, _ := json.Marshal(StyleSelectors)
	return fmt.Sprintf(`(() => {
  const tags = %s, styleSelectors = %s;
  const vw = window.innerWidth, vh = window.innerHeight;
  const structure = [];
  for (const tag of tags) {
    for (const el of document.querySelectorAll(tag)) {
      const r = el.getBoundingClientRect();
      if (r.top < -100 || r.top > vh + 100 || r.left < -100 || r.left > vw + 100) continue;
      structure.push({
        tag: tag,
        id: el.id || "",
        classes: Array.from(el.classList).slice(0, %d),
        text: (el.textContent || "").replace(/\s+/g, " ").trim().slice(0, %d),
        visible: el.offsetParent !== null,
        position: {top: Math.round(r.top), left: Math.round(r.left), width: Math.round(r.width), height: Math.round(r.height)}
      });
    }
  }
  const styles = {};
  for (const sel of styleSelectors) {
    const el = document.querySelector(sel);
    if (!el) continue;
    const c = window.getComputedStyle(el);
    styles[sel] = {color: c.color, backgroundColor: c.backgroundColor, fontFamily: c.fontFamily,
      fontSize: c.fontSize, lineHeight: c.lineHeight, margin: c.margin, padding: c.padding};
  }
  let text = "";
  for (const el of document.querySelectorAll(%s)) {
    if (el.offsetParent === null) continue;
    text += el.textContent.replace(/\s+/g, " ").trim() + " ";
    if (text.length > %d) break;
  }
  return {
    url: location.href,
    title: document.title,
    viewport: {width: vw, height: vh},
    structure: structure.slice(0, %d),
    styles: styles,
    text: text.trim()
  };
})()`, tags, selectors, MaxClasses, MaxElementText, jsQuote(TextSelector), MaxText, MaxElements)
}

func jsQuote(s string) string {
	data, _ := json.Marshal(s)
	return strings.TrimSpace(string(data))
}
