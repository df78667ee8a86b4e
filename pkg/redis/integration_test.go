//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisClientAgainstServer(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client, err := New(ctx, config.RedisConfig{Address: addr}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	key := client.CartKey("sess-int")
	if err := client.Set(ctx, key, []byte(`{"lines":[]}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil || got != `{"lines":[]}` {
		t.Fatalf("get: %q %v", got, err)
	}

	ok, err := client.SetNX(ctx, key, "x", time.Minute)
	if err != nil || ok {
		t.Fatalf("setnx on existing key: ok=%v err=%v", ok, err)
	}

	for i := int64(1); i <= 3; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 2, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if count != i || allowed != (i <= 2) {
			t.Fatalf("call %d: allowed=%v count=%d", i, allowed, count)
		}
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, key); !IsMissing(err) {
		t.Fatalf("expected missing key, got %v", err)
	}
}
