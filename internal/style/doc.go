// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package style holds the data model shared by validation and application:
// directives proposed by the generative model, the sets that survive the
// safety policy, and their rendering as stylesheet text.
//
// Property names travel through the system in the medial-capitalized form
// the model produces (backgroundColor). They are converted to the
// hyphenated stylesheet form (background-color) only when a set is
// rendered, so re-filtering a set always sees the names the policy lists.
package style
