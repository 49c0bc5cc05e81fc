// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/brushcss/brush/internal/certs"
	"github.com/brushcss/brush/internal/designer"
	"github.com/brushcss/brush/internal/session"
	"github.com/brushcss/brush/internal/style/policy"
	"github.com/brushcss/brush/internal/style/validate"
)

func TestStylist_MutualTLS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, certs.GenerateAll(dir))
	serverCfg, err := certs.ServerTLS(dir)
	require.NoError(t, err)
	clientCfg, err := certs.ClientTLS(dir)
	require.NoError(t, err)

	v, err := validate.New(policy.Default())
	require.NoError(t, err)
	svc := designer.New(session.NewRegistry(), v)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	gs := grpc.NewServer(grpc.Creds(credentials.NewTLS(serverCfg)))
	RegisterStylistServer(gs, NewServer(svc))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	client, err := NewClient(ClientConfig{Address: lis.Addr().String(), TLSConfig: clientCfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	r, err := client.OpenHTML(context.Background(), "tab", "https://acme.example/", page)
	require.NoError(t, err)
	assert.True(t, r.Success, r.Detail)

	// A client without a certificate is rejected during the handshake.
	anon := clientCfg.Clone()
	anon.Certificates = nil
	bare, err := NewClient(ClientConfig{Address: lis.Addr().String(), TLSConfig: anon})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bare.Close() })

	_, err = bare.HasPendingChanges(context.Background(), "tab")
	assert.Error(t, err)
}
