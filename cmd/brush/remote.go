// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"context"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/brushcss/brush/internal/certs"
	"github.com/brushcss/brush/internal/config"
	"github.com/brushcss/brush/internal/rpc"
	"github.com/brushcss/brush/internal/xdg"
)

// NewRemoteCmd creates the remote subcommand, a client for brush serve.
func NewRemoteCmd() *cobra.Command {
	var doc string

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Drive a running brush server",
		Long: `Call the Stylist API of a running 'brush serve'. Every subcommand
prints the server reply as JSON and fails when the reply is not a
success.`,
	}
	cmd.PersistentFlags().String("rpc-addr", config.DefaultRPCAddr, "server address")
	cmd.PersistentFlags().Bool("tls", false, "use mutual TLS")
	cmd.PersistentFlags().String("certs-dir", "", "certificates directory (default: XDG_CONFIG_HOME/brush/certs)")
	cmd.PersistentFlags().StringVarP(&doc, "document", "d", "default", "document id")

	var pageURL string
	open := &cobra.Command{
		Use:   "open [page.html]",
		Short: "Open a document from an HTML file, or a browser tab on --url",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return callRemote(cmd, func(ctx context.Context, c *rpc.Client) (rpc.Reply, error) {
				if len(args) == 0 {
					return c.OpenURL(ctx, doc, pageURL)
				}
				markup, err := os.ReadFile(args[0])
				if err != nil {
					return rpc.Reply{}, oops.With("path", args[0]).Wrapf(err, "read page")
				}
				return c.OpenHTML(ctx, doc, pageURL, string(markup))
			})
		},
	}
	open.Flags().StringVar(&pageURL, "url", "", "page URL")

	var renderOut string
	render := &cobra.Command{
		Use:   "render",
		Short: "Print the document markup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c, err := dialRemote(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			r, err := c.Render(cmd.Context(), doc)
			if err != nil {
				return err
			}
			if err := replyError(r); err != nil {
				return err
			}
			return writeOutput(cmd, renderOut, r.HTML)
		},
	}
	render.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default: stdout)")

	cmd.AddCommand(open, render,
		&cobra.Command{
			Use:   "apply <response.json|->",
			Short: "Validate and apply a model response",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				raw, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				return callRemote(cmd, func(ctx context.Context, c *rpc.Client) (rpc.Reply, error) {
					return c.ValidateAndApply(ctx, doc, string(raw))
				})
			},
		},
		&cobra.Command{
			Use:   "design <request>",
			Short: "Ask the server's model to restyle the document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return callRemote(cmd, func(ctx context.Context, c *rpc.Client) (rpc.Reply, error) {
					return c.Design(ctx, doc, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "undo",
			Short: "Remove the newest artifact",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return callRemote(cmd, func(ctx context.Context, c *rpc.Client) (rpc.Reply, error) {
					return c.Undo(ctx, doc)
				})
			},
		},
		&cobra.Command{
			Use:   "pending",
			Short: "Report whether there is anything to undo",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return callRemote(cmd, func(ctx context.Context, c *rpc.Client) (rpc.Reply, error) {
					return c.HasPendingChanges(ctx, doc)
				})
			},
		},
		&cobra.Command{
			Use:   "close",
			Short: "Remove every artifact and close the document",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return callRemote(cmd, func(ctx context.Context, c *rpc.Client) (rpc.Reply, error) {
					return c.CloseDocument(ctx, doc)
				})
			},
		},
	)
	return cmd
}

func dialRemote(cfg config.Config) (*rpc.Client, error) {
	clientCfg := rpc.ClientConfig{Address: cfg.RPC.Addr}
	if cfg.RPC.TLS {
		dir := cfg.RPC.CertsDir
		if dir == "" {
			var err error
			if dir, err = xdg.CertsDir(); err != nil {
				return nil, err
			}
		}
		tlsConfig, err := certs.ClientTLS(dir)
		if err != nil {
			return nil, err
		}
		clientCfg.TLSConfig = tlsConfig
	}
	return rpc.NewClient(clientCfg)
}

func callRemote(cmd *cobra.Command, call func(context.Context, *rpc.Client) (rpc.Reply, error)) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := dialRemote(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	r, err := call(cmd.Context(), c)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), r); err != nil {
		return err
	}
	return replyError(r)
}

func replyError(r rpc.Reply) error {
	if r.Success {
		return nil
	}
	return oops.Code("REMOTE_FAILURE").With("kind", r.ErrorKind).Errorf("%s: %s", r.ErrorKind, r.Detail)
}
