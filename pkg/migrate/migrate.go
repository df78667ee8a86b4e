package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk root used by the create/validate commands.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations
var embedded embed.FS

// Dialect maps a configured driver onto the goose dialect and the embedded
// migration folder written for it.
func Dialect(driver string) (goose.Dialect, string, error) {
	switch driver {
	case config.DriverPostgres:
		return goose.DialectPostgres, "postgres", nil
	case config.DriverSQLite:
		return goose.DialectSQLite3, "sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// DriverDir returns the on-disk migration folder for driver under root.
func DriverDir(root, driver string) (string, error) {
	_, sub, err := Dialect(driver)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, sub), nil
}

// NewProvider builds a goose provider over the migrations for driver. An empty
// dir selects the embedded set; otherwise dir/<driver> is read from disk.
func NewProvider(db *sql.DB, driver, dir string) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	dialect, sub, err := Dialect(driver)
	if err != nil {
		return nil, err
	}

	var fsys fs.FS
	if dir == "" {
		fsys, err = fs.Sub(embedded, "migrations/"+sub)
		if err != nil {
			return nil, fmt.Errorf("open embedded migrations: %w", err)
		}
	} else {
		fsys = os.DirFS(filepath.Join(dir, sub))
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Up applies every pending migration from the embedded set.
func Up(ctx context.Context, db *sql.DB, driver string) error {
	provider, err := NewProvider(db, driver, "")
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Run executes a goose command (up, down, status) against the database.
func Run(ctx context.Context, db *sql.DB, driver, dir, command string) ([]string, error) {
	provider, err := NewProvider(db, driver, dir)
	if err != nil {
		return nil, err
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose up: %w", err)
		}
		lines := make([]string, 0, len(results))
		for _, res := range results {
			lines = append(lines, res.String())
		}
		return lines, nil

	case "down":
		res, err := provider.Down(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose down: %w", err)
		}
		if res == nil {
			return nil, nil
		}
		return []string{res.String()}, nil

	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose status: %w", err)
		}
		lines := make([]string, 0, len(statuses))
		for _, st := range statuses {
			lines = append(lines, fmt.Sprintf("%d %s %s", st.Source.Version, st.State, filepath.Base(st.Source.Path)))
		}
		return lines, nil

	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver, dir, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	provider, err := NewProvider(db, driver, dir)
	if err != nil {
		return err
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if _, err := provider.UpTo(ctx, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if _, err := provider.DownTo(ctx, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
