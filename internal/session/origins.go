// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package session

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// DefaultBlockedOrigins are the browser-internal pages no session may
// style.
var DefaultBlockedOrigins = []string{
	"chrome://**",
	"chrome-extension://**",
	"about:**",
}

// compiledOrigin holds a pattern and its compiled glob.
type compiledOrigin struct {
	pattern string
	glob    glob.Glob
}

// OriginFilter rejects document URLs matching any blocked pattern.
//
// Pattern matching uses gobwas/glob with '/' as the segment separator:
//   - '*' matches within one path segment
//   - '**' matches across segments
//
// The zero value blocks nothing. OriginFilter is immutable and safe for
// concurrent use.
type OriginFilter struct {
	blocked []compiledOrigin
}

// NewOriginFilter compiles patterns. Compilation is all-or-nothing.
func NewOriginFilter(patterns []string) (*OriginFilter, error) {
	compiled := make([]compiledOrigin, 0, len(patterns))
	for i, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			return nil, oops.With("index", i).Errorf("origin pattern %d is empty", i)
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, oops.With("index", i).With("pattern", pattern).Wrapf(err, "origin pattern %d", i)
		}
		compiled = append(compiled, compiledOrigin{pattern: pattern, glob: g})
	}
	return &OriginFilter{blocked: compiled}, nil
}

// Check returns ORIGIN_BLOCKED if url matches a blocked pattern.
func (f *OriginFilter) Check(url string) error {
	if f == nil {
		return nil
	}
	for _, o := range f.blocked {
		if o.glob.Match(url) {
			return ErrOriginBlocked(url, o.pattern)
		}
	}
	return nil
}

// Patterns returns the configured patterns.
func (f *OriginFilter) Patterns() []string {
	if f == nil {
		return nil
	}
	patterns := make([]string, len(f.blocked))
	for i, o := range f.blocked {
		patterns[i] = o.pattern
	}
	return patterns
}
