// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package policy

// closers pairs each bracket with the character that closes it.
var closers = map[rune]rune{
	'(': ')',
	'[': ']',
}

// balanced reports whether every quote in s is closed and every bracket
// outside a string closes in order. A backslash escapes the next
// character. Text failing this check would change how the rest of the
// stylesheet parses.
func balanced(s string) bool {
	var (
		open    []rune
		quote   rune
		escaped bool
	)
	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[':
			open = append(open, closers[r])
		case r == ')' || r == ']':
			if len(open) == 0 || open[len(open)-1] != r {
				return false
			}
			open = open[:len(open)-1]
		}
	}
	return quote == 0 && !escaped && len(open) == 0
}
