// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package rpc

import (
	"strings"

	"github.com/brushcss/brush/internal/designer"
	"github.com/brushcss/brush/internal/model"
	"github.com/brushcss/brush/internal/session"
	"github.com/brushcss/brush/pkg/errutil"
)

// KindInternal is reported for errors without a code.
const KindInternal = "InternalError"

// kindOverrides folds related codes into one reported kind.
var kindOverrides = map[string]string{
	model.CodeModelError:          "ModelError",
	model.CodeModelConfig:         "ModelError",
	model.CodeModelResponse:       "ModelError",
	designer.CodeModelUnavailable: "ModelError",
	session.CodeSessionNotFound:   "DocumentNotFound",
	session.CodeSessionExists:     "DocumentExists",
	session.CodeInvalidSession:    "InvalidDocument",
}

// Kind maps an error to the errorKind reported to clients: the oops code
// in PascalCase, so NOTHING_TO_UNDO becomes NothingToUndo.
func Kind(err error) string {
	code := errutil.Code(err)
	if code == "" {
		return KindInternal
	}
	if kind, ok := kindOverrides[code]; ok {
		return kind
	}
	var b strings.Builder
	for _, part := range strings.Split(strings.ToLower(code), "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
