// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/brushcss/brush/internal/certs"
	"github.com/brushcss/brush/internal/xdg"
)

// NewCertsCmd creates the certs subcommand.
func NewCertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Manage mutual TLS certificates",
	}

	var dir string
	var hosts []string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a CA plus server and client certificates",
		Long: `Generate a CA plus server and client certificates for 'brush serve
--tls'. Existing files in the directory are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				var err error
				if dir, err = xdg.CertsDir(); err != nil {
					return err
				}
			}
			if err := certs.GenerateAll(dir, hosts...); err != nil {
				return err
			}
			cmd.Println("certificates written to", dir)
			return nil
		},
	}
	generate.Flags().StringVar(&dir, "dir", "", "output directory (default: XDG_CONFIG_HOME/brush/certs)")
	generate.Flags().StringSliceVar(&hosts, "host", nil, "extra server DNS names or IPs")
	cmd.AddCommand(generate)
	return cmd
}
