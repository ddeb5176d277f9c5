package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	"github.com/angelmondragon/ebookshop-backend/pkg/db"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
)

// autoRunReason names why boot-time migration applies, or returns "" when it
// must be skipped. Shared databases outside dev are always migrated by hand.
func autoRunReason(cfg *config.Config) string {
	switch {
	case cfg == nil || !cfg.FeatureFlags.AutoMigrate:
		return ""
	case cfg.FeatureFlags.UseSQLite:
		return "embedded_sqlite"
	case cfg.App.IsDev():
		return "dev_env"
	default:
		return ""
	}
}

// MaybeRunDev applies the bundled migrations at boot when the configuration
// allows it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	reason := autoRunReason(cfg)
	if reason == "" {
		return nil
	}
	if client == nil {
		return fmt.Errorf("auto-migrate (%s): db client is required", reason)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: sql handle: %w", err)
	}
	dialect := DialectFor(client.Dialect())
	ctx = logg.WithFields(ctx, map[string]any{"reason": reason, "dialect": dialect})

	applied, err := Up(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logg.Info(logg.WithField(ctx, "applied", applied), "migrations.auto_applied")
	return nil
}
