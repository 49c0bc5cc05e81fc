// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package rpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs every unary call at debug level, and calls that
// end in a gRPC error at warn level.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{"method", info.FullMethod, "duration", time.Since(start)}
		if err != nil {
			logger.Warn("rpc failed", append(attrs, "code", status.Code(err).String(), "error", err)...)
			return resp, err
		}
		logger.Debug("rpc", attrs...)
		return resp, nil
	}
}
