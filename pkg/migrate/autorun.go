package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
)

// shouldAutoRun gates boot-time migrations: the flag must be on, and only dev
// deployments or a local sqlite file migrate themselves.
func shouldAutoRun(cfg *config.Config, driver string) bool {
	return cfg.FeatureFlags.AutoMigrate && (cfg.App.IsDev() || driver == config.DriverSQLite)
}

// MaybeAutoRun applies pending embedded migrations when shouldAutoRun allows.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	driver := client.Driver()
	if !shouldAutoRun(cfg, driver) {
		return nil
	}
	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	provider, err := NewProvider(sqlDB, driver, "")
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("auto-migrate %s: %w", driver, err)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"driver":  driver,
		"applied": len(results),
		"version": version,
	}), "migrate.auto_run")
	return nil
}
