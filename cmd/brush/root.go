// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/brushcss/brush/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the brush CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brush",
		Short: "Brush - model-driven page restyling with undo",
		Long: `Brush asks a language model to restyle a web page, filters every
proposed rule through a safety policy, and applies what survives as a
removable stylesheet artifact. Every change can be undone.`,
		SilenceUsage: true,
	}

	defaults := config.Default()
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/brush/config.yaml)")
	cmd.PersistentFlags().String("log-format", defaults.Log.Format, "log format (json or text)")
	cmd.PersistentFlags().String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("policy", "", "policy table file (default: built-in table)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewApplyCmd())
	cmd.AddCommand(NewPolicyCmd())
	cmd.AddCommand(NewPingCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCertsCmd())
	cmd.AddCommand(NewRemoteCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
