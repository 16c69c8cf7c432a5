package lock_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/lock"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		var err error
		addr, err = startRedisContainer(t, ctx)
		if err != nil {
			t.Skipf("redis is not available: %v", err)
		}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis is not reachable: %v", err)
	}
	return client
}

func startRedisContainer(t *testing.T, ctx context.Context) (addr string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start redis container: %v", r)
		}
	}()

	container, err := tcredis.Run(ctx, "docker.io/redis:7")
	if err != nil {
		return "", err
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return "", err
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return "", err
	}
	return opts.Addr, nil
}

func TestRedis(t *testing.T) {
	client := redisClient(t)

	t.Run("mutual_exclusion", func(t *testing.T) {
		assertMutualExclusion(t, lock.NewRedis(client, 5*time.Second))
	})

	t.Run("lease_expires", func(t *testing.T) {
		l := lock.NewRedis(client, 200*time.Millisecond)

		_, err := l.Lock(context.Background(), "abandoned")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		unlock, err := l.Lock(ctx, "abandoned")
		require.NoError(t, err)
		unlock()
	})

	t.Run("stale_holder_does_not_release_new_lease", func(t *testing.T) {
		l := lock.NewRedis(client, 100*time.Millisecond)
		ctx := context.Background()

		staleUnlock, err := l.Lock(ctx, "stolen")
		require.NoError(t, err)
		time.Sleep(150 * time.Millisecond)

		unlock, err := l.Lock(ctx, "stolen")
		require.NoError(t, err)
		defer unlock()

		staleUnlock()

		exists, err := client.Exists(ctx, "lock:stolen").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
	})
}
