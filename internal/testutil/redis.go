//go:build integration

// Package testutil starts real backing services for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/concepto-studio/concepto/pkg/catalog"
)

// RedisImage is the image StartRedis runs.
const RedisImage = "redis:7-alpine"

// StartRedis starts a Redis container and returns its redis:// URL.
// The container is terminated when the test finishes.
func StartRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        RedisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Failed to start Redis container")

	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err, "Failed to get container host")

	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err, "Failed to get container port")

	return fmt.Sprintf("redis://%s:%s", host, port.Port())
}

// NewCatalogClient connects a catalog client to redisURL under namespace and
// closes it when the test finishes.
func NewCatalogClient(t *testing.T, redisURL, namespace string) *catalog.Client {
	t.Helper()

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err, "Failed to parse Redis URL")

	client, err := catalog.NewClient(opts, namespace)
	require.NoError(t, err, "Failed to create catalog client")
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()), "Redis not reachable")
	return client
}
