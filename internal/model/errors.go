// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package model

import "github.com/samber/oops"

// Error codes for model calls.
const (
	CodeModelError    = "MODEL_ERROR"
	CodeModelConfig   = "MODEL_CONFIG_INVALID"
	CodeModelResponse = "MODEL_RESPONSE_INVALID"
)

// ErrStatus creates an error for a non-success HTTP status.
func ErrStatus(status int, body string) error {
	return oops.Code(CodeModelError).
		With("status", status).
		With("body", body).
		Errorf("API error %d: %s", status, body)
}

// ErrConfig creates an error for an unusable client configuration.
func ErrConfig(reason string) error {
	return oops.Code(CodeModelConfig).Errorf("%s", reason)
}
