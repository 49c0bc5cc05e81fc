// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package stylist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brushcss/brush/internal/document"
	"github.com/brushcss/brush/internal/style"
	"github.com/brushcss/brush/internal/style/policy"
	"github.com/brushcss/brush/internal/style/validate"
	"github.com/brushcss/brush/pkg/errutil"
)

// fakeDocument keeps inserted stylesheets in a map and can be told to fail.
type fakeDocument struct {
	mu         sync.Mutex
	styles     map[string]string
	order      []string
	insertErr  error
	removeErr  map[string]error
	removedIDs []string
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{styles: map[string]string{}, removeErr: map[string]error{}}
}

func (d *fakeDocument) InsertStyle(_ context.Context, id, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.insertErr != nil {
		return d.insertErr
	}
	if _, ok := d.styles[id]; ok {
		return document.ErrDuplicateID(id)
	}
	d.styles[id] = text
	d.order = append(d.order, id)
	return nil
}

func (d *fakeDocument) RemoveStyle(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.removeErr[id]; err != nil {
		return err
	}
	if _, ok := d.styles[id]; !ok {
		return document.ErrArtifactNotFound(id)
	}
	delete(d.styles, id)
	d.removedIDs = append(d.removedIDs, id)
	for i, o := range d.order {
		if o == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

func (d *fakeDocument) ids() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}

func oneRule(selector, prop, value string) style.DirectiveSet {
	return style.DirectiveSet{{
		Selector:     selector,
		Declarations: []style.Declaration{{Property: prop, Value: value}},
	}}
}

// fixedClock returns the same instant on every call.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestApplyRendersOneArtifact(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)

	set := style.DirectiveSet{
		{Selector: "h1", Declarations: []style.Declaration{{Property: "fontSize", Value: "24px"}, {Property: "color", Value: "navy"}}},
		{Selector: ".card", Declarations: []style.Declaration{{Property: "borderRadius", Value: "8px"}}},
	}
	artifact, err := a.Apply(context.Background(), set)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(artifact.ID, ArtifactPrefix))
	assert.Equal(t, 2, artifact.DirectiveCount)
	assert.Equal(t, "h1 { font-size: 24px; color: navy; }\n.card { border-radius: 8px; }", artifact.Text)
	assert.Equal(t, artifact.Text, doc.styles[artifact.ID])
	assert.True(t, a.HasPendingChanges())

	last, ok := a.Last()
	require.True(t, ok)
	assert.Equal(t, artifact, last)
}

func TestApplyEmptySet(t *testing.T) {
	tests := []struct {
		name string
		set  style.DirectiveSet
	}{
		{"nil", nil},
		{"empty", style.DirectiveSet{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newFakeDocument()
			a := NewApplicator(doc)

			_, err := a.Apply(context.Background(), tt.set)
			errutil.AssertErrorCode(t, err, CodeNothingToApply)
			assert.False(t, a.HasPendingChanges())
			assert.Empty(t, doc.ids())
		})
	}
}

func TestApplyInsertFailureLeavesLedgerUnchanged(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)

	first, err := a.Apply(context.Background(), oneRule("p", "color", "red"))
	require.NoError(t, err)

	doc.insertErr = document.ErrNoInsertionPoint()
	_, err = a.Apply(context.Background(), oneRule("p", "color", "blue"))
	errutil.AssertErrorCode(t, err, CodeApplicationError)
	errutil.AssertErrorContext(t, err, "operation", "insert")

	assert.Equal(t, []Artifact{first}, a.Artifacts())
	assert.Equal(t, []string{first.ID}, doc.ids())
}

func TestApplyTwiceDistinctIncreasing(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a := NewApplicator(newFakeDocument(), WithClock(fixedClock(now)))

	first, err := a.Apply(context.Background(), oneRule("p", "color", "red"))
	require.NoError(t, err)
	second, err := a.Apply(context.Background(), oneRule("p", "color", "blue"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))
	assert.Less(t, first.ID, second.ID, "ids sort in creation order")
}

func TestCreatedAtSurvivesClockStepBack(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 5, 1, 12, 0, 1, 0, time.UTC),
		time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	i := 0
	clock := func() time.Time {
		t := times[i]
		i++
		return t
	}
	a := NewApplicator(newFakeDocument(), WithClock(clock))

	first, err := a.Apply(context.Background(), oneRule("p", "color", "red"))
	require.NoError(t, err)
	second, err := a.Apply(context.Background(), oneRule("p", "color", "blue"))
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt.Add(time.Nanosecond), second.CreatedAt)
}

func TestUndoLastRemovesNewest(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)
	ctx := context.Background()

	first, err := a.Apply(ctx, oneRule("p", "color", "red"))
	require.NoError(t, err)
	second, err := a.Apply(ctx, oneRule("p", "color", "blue"))
	require.NoError(t, err)

	res, err := a.UndoLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, res.Artifact)
	assert.Equal(t, 1, res.Remaining)
	assert.False(t, res.Vanished)

	assert.True(t, a.HasPendingChanges())
	assert.Equal(t, []string{first.ID}, doc.ids())

	res, err = a.UndoLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, res.Artifact.ID)
	assert.False(t, a.HasPendingChanges())
	assert.Empty(t, doc.ids())
}

func TestUndoLastAlwaysTakesMaxCreatedAt(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := a.Apply(ctx, oneRule("p", "zIndex", "1"))
		require.NoError(t, err)
	}
	for a.HasPendingChanges() {
		live := a.Artifacts()
		newest := live[0]
		for _, art := range live {
			if art.CreatedAt.After(newest.CreatedAt) {
				newest = art
			}
		}
		res, err := a.UndoLast(ctx)
		require.NoError(t, err)
		assert.Equal(t, newest.ID, res.Artifact.ID)
		assert.NotContains(t, doc.ids(), newest.ID)
	}
}

func TestUndoLastEmptyLedger(t *testing.T) {
	doc := newFakeDocument()
	doc.styles["page"] = "p {}"
	doc.order = []string{"page"}
	a := NewApplicator(doc)

	_, err := a.UndoLast(context.Background())
	errutil.AssertErrorCode(t, err, CodeNothingToUndo)
	assert.Equal(t, []string{"page"}, doc.ids())
	assert.Empty(t, doc.removedIDs)
}

func TestUndoLastRemoveFailureKeepsLedger(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)
	ctx := context.Background()

	artifact, err := a.Apply(ctx, oneRule("p", "color", "red"))
	require.NoError(t, err)

	doc.removeErr[artifact.ID] = errors.New("devtools disconnected")
	_, err = a.UndoLast(ctx)
	errutil.AssertErrorCode(t, err, CodeApplicationError)
	errutil.AssertErrorContext(t, err, "artifact_id", artifact.ID)
	assert.True(t, a.HasPendingChanges())

	delete(doc.removeErr, artifact.ID)
	_, err = a.UndoLast(ctx)
	require.NoError(t, err)
	assert.False(t, a.HasPendingChanges())
}

func TestUndoLastArtifactAlreadyGone(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)
	ctx := context.Background()

	artifact, err := a.Apply(ctx, oneRule("p", "color", "red"))
	require.NoError(t, err)
	delete(doc.styles, artifact.ID)
	doc.order = nil

	res, err := a.UndoLast(ctx)
	require.NoError(t, err)
	assert.True(t, res.Vanished)
	assert.Equal(t, artifact.ID, res.Artifact.ID)
	assert.False(t, a.HasPendingChanges())
}

func TestClearAll(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		art, err := a.Apply(ctx, oneRule("p", "opacity", "0.5"))
		require.NoError(t, err)
		ids = append(ids, art.ID)
	}

	require.NoError(t, a.ClearAll(ctx))
	assert.False(t, a.HasPendingChanges())
	assert.Empty(t, doc.ids())
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, doc.removedIDs, "newest first")

	require.NoError(t, a.ClearAll(ctx), "clearing an empty ledger is a no-op")
}

func TestClearAllPartialFailure(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)
	ctx := context.Background()

	var arts []Artifact
	for i := 0; i < 3; i++ {
		art, err := a.Apply(ctx, oneRule("p", "opacity", "0.5"))
		require.NoError(t, err)
		arts = append(arts, art)
	}
	doc.removeErr[arts[1].ID] = errors.New("stuck")

	err := a.ClearAll(ctx)
	errutil.AssertErrorCode(t, err, CodeApplicationError)
	errutil.AssertErrorContext(t, err, "failed", 1)

	assert.Equal(t, []Artifact{arts[1]}, a.Artifacts())
	assert.Equal(t, []string{arts[1].ID}, doc.ids())
}

func TestApplyWithHTMLDocument(t *testing.T) {
	doc, err := document.ParseHTML(strings.NewReader("<html><head></head><body><h1 class=h>x</h1></body></html>"), "")
	require.NoError(t, err)
	a := NewApplicator(doc)
	ctx := context.Background()

	art, err := a.Apply(ctx, oneRule(".h", "color", "blue"))
	require.NoError(t, err)
	assert.Equal(t, []string{art.ID}, doc.ArtifactIDs())

	_, err = a.UndoLast(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.ArtifactIDs())
}

func TestApplyDocumentRejectsAtomically(t *testing.T) {
	doc, err := document.ParseHTML(strings.NewReader("<html><head></head><body></body></html>"), "")
	require.NoError(t, err)
	a := NewApplicator(doc)

	_, err = a.Apply(context.Background(), style.DirectiveSet{{Selector: "p", Declarations: []style.Declaration{{Property: "color", Value: "red"}}}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Apply(ctx, oneRule("p", "color", "blue"))
	errutil.AssertErrorCode(t, err, CodeApplicationError)
	assert.Len(t, doc.ArtifactIDs(), 1)
	assert.Len(t, a.Artifacts(), 1)
}

func TestValidatedScenarios(t *testing.T) {
	v, err := validate.New(policy.Default())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("unknown property dropped", func(t *testing.T) {
		res, err := v.Validate(ctx, []byte(`{"selectors":[{"selector":".h","styles":{"color":"blue","evil":"bad"}}]}`))
		require.NoError(t, err)

		doc := newFakeDocument()
		art, err := NewApplicator(doc).Apply(ctx, res.Set)
		require.NoError(t, err)
		assert.Equal(t, ".h { color: blue; }", art.Text)
		assert.Equal(t, []string{art.ID}, doc.ids())
	})

	t.Run("script value leaves nothing to apply", func(t *testing.T) {
		res, err := v.Validate(ctx, []byte(`{"selectors":[{"selector":"a","styles":{"backgroundImage":"url(javascript:alert(1))"}}]}`))
		require.NoError(t, err)

		doc := newFakeDocument()
		a := NewApplicator(doc)
		_, err = a.Apply(ctx, res.Set)
		errutil.AssertErrorCode(t, err, CodeNothingToApply)
		assert.False(t, a.HasPendingChanges())
		assert.Empty(t, doc.ids())
	})
}

func TestApplicatorSerializesConcurrentCalls(t *testing.T) {
	doc := newFakeDocument()
	a := NewApplicator(doc)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Apply(ctx, oneRule("p", "color", "red"))
		}()
	}
	wg.Wait()

	live := a.Artifacts()
	require.Len(t, live, 50)
	for i := 1; i < len(live); i++ {
		assert.True(t, live[i].CreatedAt.After(live[i-1].CreatedAt))
	}
	assert.Equal(t, len(live), len(doc.ids()))
}

func TestApplyAndUndoMetrics(t *testing.T) {
	a := NewApplicator(newFakeDocument())
	ctx := context.Background()

	applied := testutil.ToFloat64(artifactsAppliedTotal)
	removed := testutil.ToFloat64(undosTotal.WithLabelValues(undoRemoved))
	empty := testutil.ToFloat64(undosTotal.WithLabelValues(undoEmpty))

	_, err := a.Apply(ctx, oneRule("p", "color", "red"))
	require.NoError(t, err)
	_, err = a.UndoLast(ctx)
	require.NoError(t, err)
	_, _ = a.UndoLast(ctx)

	assert.InDelta(t, applied+1, testutil.ToFloat64(artifactsAppliedTotal), 0)
	assert.InDelta(t, removed+1, testutil.ToFloat64(undosTotal.WithLabelValues(undoRemoved)), 0)
	assert.InDelta(t, empty+1, testutil.ToFloat64(undosTotal.WithLabelValues(undoEmpty)), 0)
}
