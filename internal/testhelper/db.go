// Package testhelper opens migrated databases for package tests.
package testhelper

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/migrate"
	"github.com/google/uuid"
)

// SetupSQLite returns a client over a private in-memory sqlite database with
// every migration applied. The client is closed via t.Cleanup.
func SetupSQLite(t *testing.T) *db.Client {
	t.Helper()
	return open(t, "file:test_"+uuid.NewString()+"?mode=memory&cache=shared")
}

// OpenSQLiteFile opens (or reopens) a file-backed sqlite database at path and
// migrates it. Callers close the client themselves to simulate restarts.
func OpenSQLiteFile(t *testing.T, path string) *db.Client {
	t.Helper()
	return openNoCleanup(t, filepath.Clean(path))
}

// TempSQLitePath returns a database path inside t.TempDir().
func TempSQLitePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sweetshop.db")
}

func open(t *testing.T, dsn string) *db.Client {
	t.Helper()
	client := openNoCleanup(t, dsn)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func openNoCleanup(t *testing.T, dsn string) *db.Client {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{Driver: config.DriverSQLite, DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("testhelper: open sqlite: %v", err)
	}
	sqlDB, err := client.SQLDB()
	if err != nil {
		t.Fatalf("testhelper: sql db: %v", err)
	}
	if err := migrate.Up(ctx, sqlDB, config.DriverSQLite); err != nil {
		t.Fatalf("testhelper: migrate: %v", err)
	}
	return client
}
