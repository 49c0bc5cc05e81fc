// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package validate

import "github.com/samber/oops"

// CodeMalformedResponse is returned when the response envelope is
// structurally invalid. The whole response is rejected.
const CodeMalformedResponse = "MALFORMED_RESPONSE"

// ErrMalformedResponse creates an error for a structurally invalid response.
func ErrMalformedResponse(detail string, cause error) error {
	builder := oops.Code(CodeMalformedResponse).With("detail", detail)
	if cause != nil {
		return builder.Wrapf(cause, "malformed response: %s", detail)
	}
	return builder.Errorf("malformed response: %s", detail)
}
