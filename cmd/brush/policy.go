// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/brushcss/brush/internal/style/policy"
)

// NewPolicyCmd creates the policy subcommand.
func NewPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the effective policy table",
		Long:  `Print the policy table in effect (the --policy file or the built-in table) as YAML.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pol, err := loadPolicy(cfg)
			if err != nil {
				return err
			}
			data, err := policy.Marshal(pol.Table())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
