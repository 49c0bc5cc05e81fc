//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package changes_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brushcss/brush/internal/changes"
)

func exerciseStore(t *testing.T, s changes.Store) {
	t.Helper()
	ctx := context.Background()

	rec := changes.Record{
		Document:   "tab-1",
		ArtifactID: "brush-css-01J9Z3V1Q7M4N8P2R5S6T7V8W9",
		URL:        "https://example.com/",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ArtifactID, got.ArtifactID)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	rec.ArtifactID = "brush-css-01J9Z3V1Q7M4N8P2R5S6T7V8WA"
	require.NoError(t, s.Save(ctx, rec))
	got, err = s.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ArtifactID, got.ArtifactID)

	require.NoError(t, s.Forget(ctx, "tab-1"))
	_, err = s.Load(ctx, "tab-1")
	assert.True(t, changes.IsNotFound(err))
}

func TestRedisStore_Integration(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	s, err := changes.NewRedisStore(ctx, fmt.Sprintf("redis://%s/0", endpoint), time.Minute)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	defer func() { _ = pgContainer.Terminate(ctx) }()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := changes.NewPostgresStore(ctx, connStr, time.Minute)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	migrator, err := changes.NewMigrator(connStr)
	require.NoError(t, err)
	defer migrator.Close()
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
