//go:build integration

package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Ramsey-B/clover/pkg/models"
)

func startRedis(t *testing.T) Config {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)
	return Config{Host: host, Port: p}
}

func TestResultCache_Redis(t *testing.T) {
	ctx := context.Background()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	client := NewClient(startRedis(t), logger)
	defer client.Close()
	require.NoError(t, client.Connect(ctx))

	c := NewResultCache(client, time.Minute, logger)
	resp := &models.MergeResponse{Success: true, TotalInput: 1, TotalOutput: 1, Fingerprint: "fp", Merged: []models.MergedRecord{}}

	require.NoError(t, c.Set(ctx, "fp", resp))

	got, ok, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resp.TotalOutput, got.TotalOutput)
	assert.Equal(t, "fp", got.Fingerprint)
}
