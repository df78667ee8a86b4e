//go:build integration

package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/migrate"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *db.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "sweetshop",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/sweetshop?sslmode=disable", host, port.Port())
	client, err := db.New(ctx, config.DBConfig{Driver: config.DriverPostgres, DSN: dsn, MaxOpenConns: 10}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQLDB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if err := migrate.Up(ctx, sqlDB, config.DriverPostgres); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return client
}

func TestPostgresCatalog(t *testing.T) {
	client := startPostgres(t)
	ctx := context.Background()
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if n, err := svc.EnsureSeeded(ctx); err != nil || n != 4 {
		t.Fatalf("seed: n=%d err=%v", n, err)
	}

	low, err := svc.LowStock(ctx)
	if err != nil || len(low) != 2 || low[0].Name != "Strawberry Lollipop" {
		t.Fatalf("unexpected low stock %+v err=%v", low, err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.InventoryValue.Equal(decimal.RequireFromString("215")) || stats.TotalUnits != 86 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	found, err := svc.List(ctx, Filter{Search: "TRUFFLE"})
	if err != nil || len(found) != 1 {
		t.Fatalf("search: %+v err=%v", found, err)
	}

	// 25 concurrent single-unit decrements against stock 25 plus 5 extra: exactly 25 win.
	gummies, err := svc.List(ctx, Filter{Category: "Gummies"})
	if err != nil || len(gummies) != 1 {
		t.Fatalf("gummies: %+v err=%v", gummies, err)
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DecrementStockIfEnough(ctx, gummies[0].ID, 1)
			if err != nil {
				t.Errorf("decrement: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 25 {
		t.Fatalf("expected 25 successful decrements, got %d", wins)
	}
	reloaded, err := svc.Get(ctx, gummies[0].ID)
	if err != nil || reloaded.Stock != 0 {
		t.Fatalf("expected stock 0, got %+v err=%v", reloaded, err)
	}
}
