// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/brushcss/brush/internal/changes"
	"github.com/brushcss/brush/internal/config"
	"github.com/brushcss/brush/internal/designer"
	"github.com/brushcss/brush/internal/logging"
	"github.com/brushcss/brush/internal/model"
	"github.com/brushcss/brush/internal/session"
	"github.com/brushcss/brush/internal/style/policy"
	"github.com/brushcss/brush/internal/style/validate"
)

// loadConfig reads the config file named by --config and applies the
// command's explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}

// newLogger builds the command logger. It writes to w, normally stderr.
func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.Setup("brush", version, cfg.Log, w)
	if err != nil {
		return nil, oops.Code(config.CodeInvalid).Wrapf(err, "set up logging")
	}
	return logger, nil
}

func loadPolicy(cfg config.Config) (*policy.Policy, error) {
	if cfg.Policy.File == "" {
		return policy.Default(), nil
	}
	return policy.LoadFile(cfg.Policy.File)
}

// appOptions selects which optional collaborators newService builds.
type appOptions struct {
	// model builds the model client; Design fails without it.
	model bool
	// store opens the configured change store instead of a memory store.
	store bool
}

// newService wires a designer.Service from cfg.
func newService(ctx context.Context, cfg config.Config, logger *slog.Logger, opts appOptions) (*designer.Service, error) {
	pol, err := loadPolicy(cfg)
	if err != nil {
		return nil, err
	}
	validator, err := validate.New(pol, validate.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	filter, err := session.NewOriginFilter(cfg.Session.BlockedOrigins)
	if err != nil {
		return nil, err
	}
	registry := session.NewRegistry(session.WithOriginFilter(filter), session.WithLogger(logger))

	svcOpts := []designer.Option{designer.WithLogger(logger)}
	if opts.store {
		store, err := changes.Open(ctx, cfg.Changes)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, designer.WithChanges(store))
	}
	if opts.model {
		client, err := model.NewClient(cfg.Model, model.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, designer.WithModel(&model.PromptDesigner{Client: client, Policy: pol}))
	}
	return designer.New(registry, validator, svcOpts...), nil
}
