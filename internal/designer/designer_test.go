// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package designer

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brushcss/brush/internal/capture"
	"github.com/brushcss/brush/internal/changes"
	"github.com/brushcss/brush/internal/session"
	"github.com/brushcss/brush/internal/style"
	"github.com/brushcss/brush/internal/style/policy"
	"github.com/brushcss/brush/internal/style/validate"
	"github.com/brushcss/brush/internal/stylist"
	"github.com/brushcss/brush/pkg/errutil"
)

const page = `<html><head><title>Acme</title></head><body><h1 class="h">Hi</h1><p>Body text</p></body></html>`

// stubModel returns a canned response and remembers what it was asked.
type stubModel struct {
	response string
	err      error
	gate     chan struct{}
	entered  chan struct{}
	snap     capture.Snapshot
	request  string
}

func (m *stubModel) Design(ctx context.Context, snap capture.Snapshot, request string) ([]byte, error) {
	m.snap, m.request = snap, request
	if m.entered != nil {
		close(m.entered)
	}
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []byte(m.response), m.err
}

func newService(t *testing.T, opts ...Option) (*Service, *changes.MemoryStore) {
	t.Helper()
	v, err := validate.New(policy.Default())
	require.NoError(t, err)
	filter, err := session.NewOriginFilter(session.DefaultBlockedOrigins)
	require.NoError(t, err)
	store := changes.NewMemoryStore(time.Hour)
	svc := New(session.NewRegistry(session.WithOriginFilter(filter)), v, append([]Option{WithChanges(store)}, opts...)...)

	_, err = svc.OpenHTML("tab", "https://acme.example/", strings.NewReader(page))
	require.NoError(t, err)
	return svc, store
}

func TestValidateAndApply(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	out, err := svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[{"selector":".h","styles":{"color":"blue","evil":"bad"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, ".h { color: blue; }", out.Text)
	assert.Equal(t, 1, out.DirectiveCount)
	assert.Equal(t, 1, out.Report.DroppedDeclarations)

	rec, err := store.Load(ctx, "tab")
	require.NoError(t, err)
	assert.Equal(t, out.ArtifactID, rec.ArtifactID)
	assert.Equal(t, "https://acme.example/", rec.URL)

	markup, ids, err := svc.Render(ctx, "tab")
	require.NoError(t, err)
	assert.Equal(t, []string{out.ArtifactID}, ids)
	assert.Contains(t, markup, ".h { color: blue; }")

	pending, err := svc.HasPendingChanges("tab")
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestValidateAndApplyKeepsSafeRulesBesideUnbalancedText(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	out, err := svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[
		{"selector":"h1","styles":{"color":"red"}},
		{"selector":"p","styles":{"fontFamily":"\"Open Sans"}},
		{"selector":"[data-x=\"1]","styles":{"color":"blue"}}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, "h1 { color: red; }", out.Text)
	assert.Equal(t, 2, out.Report.DroppedDirectives)

	pending, err := svc.HasPendingChanges("tab")
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestValidateAndApplyFailures(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode string
	}{
		{"malformed", `{"selectors":"nope"}`, validate.CodeMalformedResponse},
		{"not json", `definitely not json`, validate.CodeMalformedResponse},
		{"fully filtered", `{"selectors":[{"selector":"a","styles":{"backgroundImage":"url(javascript:alert(1))"}}]}`, stylist.CodeNothingToApply},
		{"empty", `{"selectors":[]}`, stylist.CodeNothingToApply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t)
			ctx := context.Background()

			_, err := svc.ValidateAndApply(ctx, "tab", []byte(tt.raw))
			errutil.AssertErrorCode(t, err, tt.wantCode)

			pending, err := svc.HasPendingChanges("tab")
			require.NoError(t, err)
			assert.False(t, pending)
			_, err = store.Load(ctx, "tab")
			assert.True(t, changes.IsNotFound(err))
		})
	}
}

func TestValidateAndApplyValue(t *testing.T) {
	svc, _ := newService(t)
	out, err := svc.ValidateAndApplyValue(context.Background(), "tab", map[string]any{
		"selectors": []any{map[string]any{"selector": "p", "styles": map[string]any{"fontSize": "18px"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "p { font-size: 18px; }", out.Text)
}

func TestUnknownDocument(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.ValidateAndApply(ctx, "nope", []byte(`{"selectors":[]}`))
	errutil.AssertErrorCode(t, err, session.CodeSessionNotFound)
	_, err = svc.Undo(ctx, "nope")
	errutil.AssertErrorCode(t, err, session.CodeSessionNotFound)
	_, err = svc.HasPendingChanges("nope")
	errutil.AssertErrorCode(t, err, session.CodeSessionNotFound)
}

func TestOpenBlockedOrigin(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.OpenHTML("internal", "chrome://settings", strings.NewReader(page))
	errutil.AssertErrorCode(t, err, session.CodeOriginBlocked)

	_, err = svc.OpenBrowser(context.Background(), "internal", "about:blank")
	errutil.AssertErrorCode(t, err, session.CodeOriginBlocked)
}

func TestUndoUpdatesRecord(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	first, err := svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[{"selector":"p","styles":{"color":"red"}}]}`))
	require.NoError(t, err)
	second, err := svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[{"selector":"p","styles":{"color":"blue"}}]}`))
	require.NoError(t, err)

	res, err := svc.Undo(ctx, "tab")
	require.NoError(t, err)
	assert.Equal(t, second.ArtifactID, res.Artifact.ID)
	assert.Equal(t, 1, res.Remaining)

	rec, err := svc.LastChange(ctx, "tab")
	require.NoError(t, err)
	assert.Equal(t, first.ArtifactID, rec.ArtifactID)

	_, ids, err := svc.Render(ctx, "tab")
	require.NoError(t, err)
	assert.Equal(t, []string{first.ArtifactID}, ids)

	_, err = svc.Undo(ctx, "tab")
	require.NoError(t, err)
	_, err = store.Load(ctx, "tab")
	assert.True(t, changes.IsNotFound(err))

	_, err = svc.Undo(ctx, "tab")
	errutil.AssertErrorCode(t, err, stylist.CodeNothingToUndo)
}

func TestRecordFollowsTailWhenUndoLandsBeforeRecord(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	first, err := svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[{"selector":"p","styles":{"color":"red"}}]}`))
	require.NoError(t, err)

	sess, err := svc.Sessions().Get("tab")
	require.NoError(t, err)

	// An apply has inserted its artifact but not yet recorded it when an
	// undo removes it again.
	_, err = sess.Applicator().Apply(ctx, style.DirectiveSet{
		{Selector: "p", Declarations: []style.Declaration{{Property: "color", Value: "green"}}},
	})
	require.NoError(t, err)
	_, err = svc.Undo(ctx, "tab")
	require.NoError(t, err)

	svc.syncRecord(ctx, sess)

	rec, err := store.Load(ctx, "tab")
	require.NoError(t, err)
	assert.Equal(t, first.ArtifactID, rec.ArtifactID)
}

func TestRecordMatchesLedgerAfterConcurrentApplyAndUndo(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[{"selector":"p","styles":{"color":"red"}}]}`))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = svc.Undo(ctx, "tab")
			}
		}()
	}
	wg.Wait()

	sess, err := svc.Sessions().Get("tab")
	require.NoError(t, err)
	rec, err := store.Load(ctx, "tab")
	if tail, ok := sess.Applicator().Last(); ok {
		require.NoError(t, err)
		assert.Equal(t, tail.ID, rec.ArtifactID)
	} else {
		assert.True(t, changes.IsNotFound(err))
	}
}

func TestDesign(t *testing.T) {
	m := &stubModel{response: `{"selectors":[{"selector":"h1","styles":{"fontSize":"40px","behavior":"url(x.htc)"}}]}`}
	svc, _ := newService(t, WithModel(m))

	out, err := svc.Design(context.Background(), "tab", "bigger heading")
	require.NoError(t, err)
	assert.Equal(t, "h1 { font-size: 40px; }", out.Text)

	assert.Equal(t, "bigger heading", m.request)
	assert.Equal(t, "https://acme.example/", m.snap.URL)
	assert.Equal(t, "Acme", m.snap.Title)
	assert.Contains(t, m.snap.Text, "Body text")
}

func TestDesignWithoutModel(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Design(context.Background(), "tab", "x")
	errutil.AssertErrorCode(t, err, CodeModelUnavailable)
}

func TestDesignSingleInFlight(t *testing.T) {
	m := &stubModel{
		response: `{"selectors":[{"selector":"p","styles":{"color":"red"}}]}`,
		gate:     make(chan struct{}),
		entered:  make(chan struct{}),
	}
	svc, _ := newService(t, WithModel(m))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Design(ctx, "tab", "first")
		done <- err
	}()
	<-m.entered

	_, err := svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[{"selector":"p","styles":{"color":"blue"}}]}`))
	errutil.AssertErrorCode(t, err, session.CodeRequestInFlight)

	close(m.gate)
	require.NoError(t, <-done)

	_, err = svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[{"selector":"p","styles":{"color":"blue"}}]}`))
	require.NoError(t, err)
}

func TestCloseAndShutdown(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.ValidateAndApply(ctx, "tab", []byte(`{"selectors":[{"selector":"p","styles":{"color":"red"}}]}`))
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx, "tab"))
	_, err = store.Load(ctx, "tab")
	assert.True(t, changes.IsNotFound(err))
	errutil.AssertErrorCode(t, svc.Close(ctx, "tab"), session.CodeSessionNotFound)

	_, err = svc.OpenHTML("other", "https://b.example/", strings.NewReader(page))
	require.NoError(t, err)
	require.NoError(t, svc.Shutdown(ctx))
	assert.Empty(t, svc.Sessions().IDs())
}
