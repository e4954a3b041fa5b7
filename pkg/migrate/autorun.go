package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pintuan-backend/pkg/config"
	"github.com/angelmondragon/pintuan-backend/pkg/db"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations in dev when PINTUAN_AUTO_MIGRATE is set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir, "service": cfg.Service.Kind})
	if err := ValidateDir(DefaultDir); err != nil {
		return fmt.Errorf("validating migrations: %w", err)
	}
	logg.Info(ctx, "applying migrations before starting the closer")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "migrations applied")
	return nil
}
