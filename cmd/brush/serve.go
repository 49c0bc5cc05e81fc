// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/brushcss/brush/internal/certs"
	"github.com/brushcss/brush/internal/config"
	"github.com/brushcss/brush/internal/observability"
	"github.com/brushcss/brush/internal/rpc"
	"github.com/brushcss/brush/internal/xdg"
	"github.com/brushcss/brush/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Stylist gRPC API",
		Long: `Serve the brush.v1.Stylist gRPC API used by the browser bridge, plus
metrics and health probes. Design requests need a model API key
(BRUSH_API_KEY); without one only ValidateAndApply is available.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	defaults := config.Default()
	cmd.Flags().String("rpc-addr", defaults.RPC.Addr, "gRPC listen address")
	cmd.Flags().Bool("tls", false, "require mutual TLS (see 'brush certs generate')")
	cmd.Flags().String("certs-dir", "", "certificates directory (default: XDG_CONFIG_HOME/brush/certs)")
	cmd.Flags().String("metrics-addr", defaults.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("changes-backend", defaults.Changes.Backend, "last-change store (memory, redis or postgres)")
	cmd.Flags().String("redis-url", "", "Redis URL for the redis backend")
	cmd.Flags().String("database-url", "", "PostgreSQL URL for the postgres backend")
	cmd.Flags().StringSlice("blocked-origins", defaults.Session.BlockedOrigins, "URL globs that cannot be opened")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	withModel := cfg.Model.APIKey != ""
	if !withModel {
		logger.Warn("no model API key configured; design requests will fail", "env", config.APIKeyEnv)
	}
	svc, err := newService(ctx, cfg, logger, appOptions{model: withModel, store: true})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := svc.Shutdown(shutdownCtx); err != nil {
			errutil.LogWarn(logger, "error closing documents", err)
		}
	}()

	serverOpts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(rpc.LoggingInterceptor(logger))}
	if cfg.RPC.TLS {
		tlsConfig, err := serverTLS(cfg)
		if err != nil {
			return err
		}
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}
	grpcServer := grpc.NewServer(serverOpts...)
	rpc.RegisterStylistServer(grpcServer, rpc.NewServer(svc, rpc.WithServerLogger(logger)))

	listener, err := net.Listen("tcp", cfg.RPC.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.RPC.Addr).Wrapf(err, "listen")
	}

	var ready atomic.Bool
	var obsServer *observability.Server
	if cfg.Metrics.Addr != "" {
		observability.RecordBuildInfo(version)
		obsServer = observability.NewServer(cfg.Metrics.Addr, ready.Load, observability.WithLogger(logger))
		obsErrChan, err := obsServer.Start()
		if err != nil {
			_ = listener.Close()
			return oops.Code("OBSERVABILITY_FAILED").Wrapf(err, "start observability server")
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if serveErr := grpcServer.Serve(listener); serveErr != nil {
			errChan <- serveErr
		}
	}()
	ready.Store(true)

	cmd.Println("brush serving on", listener.Addr().String())
	logger.Info("brush ready", "rpc_addr", listener.Addr().String(), "tls", cfg.RPC.TLS, "changes_backend", cfg.Changes.Backend)

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		serveErr = oops.Code("SERVE_FAILED").Wrapf(err, "gRPC server error")
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	ready.Store(false)
	grpcServer.GracefulStop()

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			errutil.LogWarn(logger, "error stopping observability server", err)
		}
	}

	logger.Info("shutdown complete")
	return serveErr
}

func serverTLS(cfg config.Config) (*tls.Config, error) {
	dir := cfg.RPC.CertsDir
	if dir == "" {
		var err error
		if dir, err = xdg.CertsDir(); err != nil {
			return nil, err
		}
	}
	return certs.ServerTLS(dir)
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
