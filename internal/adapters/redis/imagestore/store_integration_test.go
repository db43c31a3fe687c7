//go:build integration

package imagestore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/minnehack/registration-api/internal/adapters/contracttest"
	imagestoreport "github.com/minnehack/registration-api/internal/ports/out/imagestore"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	addr, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return client
}

func TestContract_RedisImageStore(t *testing.T) {
	client := startRedis(t)

	contracttest.RunImageStore(t, func(t *testing.T) (imagestoreport.Store, func()) {
		t.Helper()
		return NewStore(client), nil
	})
}

func TestStore_TTLAndPrefix(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	s := NewStore(client, WithKeyPrefix("test:"), WithTTL(time.Minute))
	if err := s.Put(ctx, "abc", []byte("png")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ttl, err := client.TTL(ctx, "test:abc").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl=%v, want (0, 1m]", ttl)
	}
}
