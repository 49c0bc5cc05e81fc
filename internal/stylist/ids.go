// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package stylist

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ArtifactPrefix starts every artifact id.
const ArtifactPrefix = "brush-css-"

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewArtifactID returns a fresh id stamped with t. Ids created in the same
// millisecond sort in creation order.
func NewArtifactID(t time.Time) string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ArtifactPrefix + ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ParseArtifactID extracts the ULID from an artifact id.
func ParseArtifactID(id string) (ulid.ULID, error) {
	raw, ok := strings.CutPrefix(id, ArtifactPrefix)
	if !ok {
		return ulid.ULID{}, oops.With("artifact_id", id).Errorf("artifact id %q lacks prefix %q", id, ArtifactPrefix)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, oops.With("artifact_id", id).Wrapf(err, "invalid artifact id %q", id)
	}
	return parsed, nil
}
