package migrate

import (
	"context"

	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/db"
	"github.com/linarqa/linarqa-web/pkg/logger"
)

// MaybeRunDev brings the session storage table up to date on start when the
// app runs in dev with auto-migrate on. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	ctx = logg.WithField(ctx, "driver", client.Driver())
	if err := Up(ctx, sqlDB, client.Driver(), Source{}); err != nil {
		return err
	}
	logg.Info(ctx, "storage.migrated")
	return nil
}
