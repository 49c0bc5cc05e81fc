// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package policy

import "github.com/samber/oops"

// CodeInvalidPolicy is the error code for tables that cannot be compiled.
const CodeInvalidPolicy = "POLICY_INVALID"

func errInvalid(reason string, args ...any) error {
	return oops.Code(CodeInvalidPolicy).Errorf(reason, args...)
}
