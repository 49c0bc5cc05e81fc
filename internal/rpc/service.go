// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package rpc exposes the design pipeline as the gRPC service
// brush.v1.Stylist.
//
// Every method takes and returns a google.protobuf.Struct. Domain failures
// are part of the reply ({"success": false, "errorKind": ..., "detail":
// ...}); gRPC status errors are reserved for requests that are missing
// required fields.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified service name.
const ServiceName = "brush.v1.Stylist"

// Method names.
const (
	MethodOpenDocument      = "OpenDocument"
	MethodValidateAndApply  = "ValidateAndApply"
	MethodDesign            = "Design"
	MethodUndo              = "Undo"
	MethodHasPendingChanges = "HasPendingChanges"
	MethodRenderDocument    = "RenderDocument"
	MethodCloseDocument     = "CloseDocument"
)

// StylistServer is the server side of brush.v1.Stylist.
type StylistServer interface {
	OpenDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateAndApply(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Design(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Undo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	HasPendingChanges(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenderDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(StylistServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes brush.v1.Stylist for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StylistServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodOpenDocument, StylistServer.OpenDocument),
		unary(MethodValidateAndApply, StylistServer.ValidateAndApply),
		unary(MethodDesign, StylistServer.Design),
		unary(MethodUndo, StylistServer.Undo),
		unary(MethodHasPendingChanges, StylistServer.HasPendingChanges),
		unary(MethodRenderDocument, StylistServer.RenderDocument),
		unary(MethodCloseDocument, StylistServer.CloseDocument),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "brush/v1/stylist.proto",
}

// RegisterStylistServer registers srv on s.
func RegisterStylistServer(s grpc.ServiceRegistrar, srv StylistServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the gRPC path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StylistServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StylistServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
