// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/brushcss/brush/internal/document"
	"github.com/brushcss/brush/internal/style"
	"github.com/brushcss/brush/internal/style/validate"
	"github.com/brushcss/brush/internal/stylist"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	var htmlPath, outPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <response.json|->",
		Short: "Validate a model response offline",
		Long: `Validate a model style response against the policy and print what
survived as a directive tree and as stylesheet text. With --html the
result is also applied to the page and written to --out (or stdout).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			pol, err := loadPolicy(cfg)
			if err != nil {
				return err
			}
			validator, err := validate.New(pol, validate.WithLogger(logger))
			if err != nil {
				return err
			}

			res, err := validator.Validate(cmd.Context(), raw)
			if err != nil {
				return err
			}
			if asJSON {
				if err := printJSON(cmd.OutOrStdout(), map[string]any{"directives": res.Set, "report": res.Report, "css": res.Set.Render()}); err != nil {
					return err
				}
			} else {
				printResult(cmd.OutOrStdout(), res)
			}
			if res.Set.Empty() {
				return stylist.ErrNothingToApply()
			}
			if htmlPath == "" {
				return nil
			}
			return applyToFile(cmd, htmlPath, outPath, res.Set)
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "HTML page to apply the result to")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file for --html (default: stdout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printResult(w io.Writer, res validate.Result) {
	tree := treeprint.NewWithRoot(fmt.Sprintf("directives (%d kept, %d dropped)", len(res.Set), res.Report.DroppedDirectives))
	for _, d := range res.Set {
		branch := tree.AddBranch(d.Selector)
		for _, decl := range d.Declarations {
			branch.AddNode(style.CanonicalProperty(decl.Property) + ": " + decl.Value)
		}
	}
	if len(res.Report.Drops) > 0 {
		dropped := tree.AddBranch(fmt.Sprintf("dropped (%d declarations)", res.Report.DroppedDeclarations))
		for _, d := range res.Report.Drops {
			dropped.AddNode(describeDrop(d))
		}
	}
	fmt.Fprint(w, tree.String())
	if !res.Set.Empty() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, res.Set.Render())
	}
}

func describeDrop(d validate.Drop) string {
	s := fmt.Sprintf("#%d %s", d.Directive, d.Selector)
	if d.Property != "" {
		s += " " + d.Property
		if d.Value != "" {
			s += "=" + d.Value
		}
	}
	s += " (" + string(d.Reason)
	if d.Pattern != "" {
		s += ": " + d.Pattern
	}
	return s + ")"
}

func applyToFile(cmd *cobra.Command, htmlPath, outPath string, set style.DirectiveSet) error {
	f, err := os.Open(htmlPath) //nolint:gosec // operator-supplied path
	if err != nil {
		return oops.With("path", htmlPath).Wrapf(err, "open page")
	}
	defer func() { _ = f.Close() }()

	doc, err := document.ParseHTML(f, "file://"+htmlPath)
	if err != nil {
		return err
	}
	artifact, err := stylist.NewApplicator(doc).Apply(cmd.Context(), set)
	if err != nil {
		return err
	}
	cmd.PrintErrln("applied", artifact.ID)
	return writeOutput(cmd, outPath, doc.String())
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, oops.Wrapf(err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, oops.With("path", path).Wrapf(err, "read input")
	}
	return data, nil
}

func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return oops.With("path", path).Wrapf(err, "write output")
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return oops.Wrapf(err, "encode output")
	}
	return nil
}
