// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

//go:build integration

package pipeline_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/brushcss/brush/internal/changes"
)

var _ = Describe("Design pipeline", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("designing a page", func() {
		It("applies the model's safe styles and records the change in Postgres", func() {
			openPage("design-ok")
			env.model.script(`{"selectors":[{"selector":".hero-title","styles":{"color":"#1a1a2e","fontSize":"3rem"}}]}`)

			r, err := env.client.Design(ctx, "design-ok", "make the headline bigger")
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Success).To(BeTrue(), r.Detail)
			Expect(r.CSS).To(Equal(".hero-title { color: #1a1a2e; font-size: 3rem; }"))

			Expect(env.model.prompt()).To(ContainSubstring("make the headline bigger"))
			Expect(env.model.prompt()).To(ContainSubstring("Acme Store"))

			rec, err := env.store.Load(ctx, "design-ok")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ArtifactID).To(Equal(r.ArtifactID))
			Expect(rec.URL).To(Equal("https://acme.example/"))
		})

		It("drops unsafe declarations before they reach the page", func() {
			openPage("design-unsafe")
			env.model.script(`{"selectors":[
				{"selector":"main","styles":{"backgroundImage":"url(javascript:alert(1))","padding":"2rem"}},
				{"selector":"</style><script>","styles":{"color":"red"}}
			]}`)

			r, err := env.client.Design(ctx, "design-unsafe", "add breathing room")
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Success).To(BeTrue(), r.Detail)
			Expect(r.CSS).To(Equal("main { padding: 2rem; }"))
			Expect(r.DroppedDeclarations).To(Equal(1))
			Expect(r.DroppedDirectives).To(Equal(1))

			rendered, err := env.client.Render(ctx, "design-unsafe")
			Expect(err).NotTo(HaveOccurred())
			Expect(rendered.HTML).NotTo(ContainSubstring("javascript:"))
			Expect(rendered.HTML).NotTo(ContainSubstring("<script>"))
		})

		It("leaves the page untouched when the model output is malformed", func() {
			openPage("design-malformed")
			env.model.script(`Sure! Here is some CSS: h1 { color: red }`)

			r, err := env.client.Design(ctx, "design-malformed", "make it red")
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Success).To(BeFalse())
			Expect(r.ErrorKind).To(Equal("MalformedResponse"))

			pending, err := env.client.HasPendingChanges(ctx, "design-malformed")
			Expect(err).NotTo(HaveOccurred())
			Expect(pending.HasChanges).To(BeFalse())

			_, err = env.store.Load(ctx, "design-malformed")
			Expect(changes.IsNotFound(err)).To(BeTrue())
		})

		It("reports NothingToApply when every directive is filtered", func() {
			openPage("design-empty")
			env.model.script(`{"selectors":[{"selector":"h1","styles":{"behavior":"url(x.htc)"}}]}`)

			r, err := env.client.Design(ctx, "design-empty", "anything")
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ErrorKind).To(Equal("NothingToApply"))
		})
	})

	Describe("undo", func() {
		It("removes artifacts newest first and keeps the record current", func() {
			openPage("undo")
			first, err := env.client.ValidateAndApply(ctx, "undo", `{"selectors":[{"selector":"h1","styles":{"color":"navy"}}]}`)
			Expect(err).NotTo(HaveOccurred())
			second, err := env.client.ValidateAndApply(ctx, "undo", `{"selectors":[{"selector":"p","styles":{"color":"gray"}}]}`)
			Expect(err).NotTo(HaveOccurred())

			rendered, err := env.client.Render(ctx, "undo")
			Expect(err).NotTo(HaveOccurred())
			Expect(countStyles(rendered.HTML)).To(Equal(2))
			Expect(rendered.ArtifactIDs).To(Equal([]string{first.ArtifactID, second.ArtifactID}))

			undone, err := env.client.Undo(ctx, "undo")
			Expect(err).NotTo(HaveOccurred())
			Expect(undone.ArtifactID).To(Equal(second.ArtifactID))
			Expect(undone.Remaining).To(Equal(1))

			rec, err := env.store.Load(ctx, "undo")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ArtifactID).To(Equal(first.ArtifactID))

			undone, err = env.client.Undo(ctx, "undo")
			Expect(err).NotTo(HaveOccurred())
			Expect(undone.ArtifactID).To(Equal(first.ArtifactID))

			_, err = env.store.Load(ctx, "undo")
			Expect(changes.IsNotFound(err)).To(BeTrue())

			rendered, err = env.client.Render(ctx, "undo")
			Expect(err).NotTo(HaveOccurred())
			Expect(countStyles(rendered.HTML)).To(BeZero())

			again, err := env.client.Undo(ctx, "undo")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.ErrorKind).To(Equal("NothingToUndo"))
		})
	})

	Describe("sessions", func() {
		It("refuses blocked origins", func() {
			r, err := env.client.OpenHTML(ctx, "blocked", "chrome-extension://abc/popup.html", page)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ErrorKind).To(Equal("OriginBlocked"))
		})

		It("removes every artifact and the record when a document closes", func() {
			r, err := env.client.OpenHTML(ctx, "closing", "https://acme.example/", page)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Success).To(BeTrue())
			_, err = env.client.ValidateAndApply(ctx, "closing", `{"selectors":[{"selector":"h1","styles":{"color":"navy"}}]}`)
			Expect(err).NotTo(HaveOccurred())

			closed, err := env.client.CloseDocument(ctx, "closing")
			Expect(err).NotTo(HaveOccurred())
			Expect(closed.Success).To(BeTrue())

			_, err = env.store.Load(ctx, "closing")
			Expect(changes.IsNotFound(err)).To(BeTrue())
		})
	})
})
