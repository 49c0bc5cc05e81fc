// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const cliDocument = "cli"

// NewApplyCmd creates the apply subcommand.
func NewApplyCmd() *cobra.Command {
	var outPath, pageURL string

	cmd := &cobra.Command{
		Use:   "apply <page.html> <request>",
		Short: "Restyle an HTML file with the model",
		Long: `Capture an HTML file, ask the model to restyle it according to the
request, validate the response and write the page with the resulting
stylesheet artifact to --out (or stdout).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			svc, err := newService(cmd.Context(), cfg, logger, appOptions{model: true})
			if err != nil {
				return err
			}

			f, err := os.Open(args[0]) //nolint:gosec // operator-supplied path
			if err != nil {
				return oops.With("path", args[0]).Wrapf(err, "open page")
			}
			defer func() { _ = f.Close() }()

			if pageURL == "" {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return oops.Wrapf(err, "resolve page path")
				}
				pageURL = "file://" + abs
			}
			if _, err := svc.OpenHTML(cliDocument, pageURL, f); err != nil {
				return err
			}

			out, err := svc.Design(cmd.Context(), cliDocument, args[1])
			if err != nil {
				return err
			}
			cmd.PrintErrf("applied %s: %d directives, %d declarations dropped\n",
				out.ArtifactID, out.DirectiveCount, out.Report.DroppedDeclarations)

			markup, _, err := svc.Render(cmd.Context(), cliDocument)
			if err != nil {
				return err
			}
			return writeOutput(cmd, outPath, markup)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&pageURL, "url", "", "URL reported to the model (default: file URL of the page)")
	cmd.Flags().String("model", "", "model name")
	cmd.Flags().String("endpoint", "", "OpenAI-compatible API endpoint")
	cmd.Flags().Float64("temperature", 0, "sampling temperature")
	cmd.Flags().Int("max-tokens", 0, "maximum response tokens")
	return cmd
}
