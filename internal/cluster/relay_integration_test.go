package cluster

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

var (
	testRedisURL   string
	redisContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redisContainer, err = redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis container unavailable, integration tests will skip: %v\n", err)
		os.Exit(m.Run())
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	code := m.Run()
	if err := redisContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
	}
	os.Exit(code)
}

func setupRelay(t *testing.T, ctx context.Context, channel string) *Relay {
	t.Helper()
	if testing.Short() || testRedisURL == "" {
		t.Skip("skipping integration test")
	}

	r, err := New(ctx, testRedisURL, channel, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRelayBetweenInstances(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := setupRelay(t, ctx, "chat:test")
	b := setupRelay(t, ctx, "chat:test")

	gotA := make(chan string, 64)
	gotB := make(chan string, 64)
	go func() { _ = a.Subscribe(ctx, func(text string) { gotA <- text }) }()
	go func() { _ = b.Subscribe(ctx, func(text string) { gotB <- text }) }()

	// Publish until B's subscription is live.
	var first string
	require.Eventually(t, func() bool {
		require.NoError(t, a.Publish(ctx, "hello from a"))
		select {
		case first = <-gotB:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "hello from a", first)

	select {
	case text := <-gotA:
		t.Fatalf("instance received its own message %q", text)
	case <-time.After(200 * time.Millisecond):
	}
}
