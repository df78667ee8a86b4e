package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"go.uber.org/multierr"
)

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
)

// ValidateDir validates migration filenames and goose headers in every dialect
// folder under root, and checks that both dialects carry the same versions.
// All problems are reported together.
func ValidateDir(root string) error {
	if root == "" {
		return fmt.Errorf("dir is required")
	}

	versions := map[string]map[string]string{}
	var errs error
	for _, driver := range []string{config.DriverPostgres, config.DriverSQLite} {
		dir, err := DriverDir(root, driver)
		if err != nil {
			return err
		}
		seen, err := validateDialectDir(dir)
		errs = multierr.Append(errs, err)
		versions[driver] = seen
	}

	pg, lite := versions[config.DriverPostgres], versions[config.DriverSQLite]
	for v, name := range pg {
		if _, ok := lite[v]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("migration %q has no sqlite counterpart", name))
		}
	}
	for v, name := range lite {
		if _, ok := pg[v]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("migration %q has no postgres counterpart", name))
		}
	}
	return errs
}

func validateDialectDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{} // version -> filename
	var errs error

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name))
			continue
		}
		seen[version] = name

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", full, err))
			continue
		}

		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			errs = multierr.Append(errs, fmt.Errorf("migration %q missing \"-- +goose Up\"", full))
		}
		if !strings.Contains(txt, "-- +goose Down") {
			errs = multierr.Append(errs, fmt.Errorf("migration %q missing \"-- +goose Down\"", full))
		}
	}

	return seen, errs
}
