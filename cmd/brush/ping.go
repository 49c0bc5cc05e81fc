// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/brushcss/brush/internal/model"
)

// NewPingCmd creates the ping subcommand.
func NewPingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the model endpoint and API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client, err := model.NewClient(cfg.Model, model.WithLogger(logger))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := client.Ping(ctx); err != nil {
				return err
			}
			cmd.Printf("ok: %s (%s)\n", cfg.Model.Endpoint, cfg.Model.Model)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	cmd.Flags().String("endpoint", "", "OpenAI-compatible API endpoint")
	cmd.Flags().String("model", "", "model name")
	return cmd
}
