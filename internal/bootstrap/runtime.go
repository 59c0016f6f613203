// Package bootstrap wires the process-wide runtime: database, Redis and the
// optional demo catalogue.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"srefhub/internal/cache"
	"srefhub/internal/config"
	"srefhub/internal/database"
	"srefhub/internal/middleware"
	"srefhub/internal/models"
	"srefhub/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with a demo catalogue.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// A nil Redis client means the server runs without cache, rate limiting and notifications.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemo {
		if err := seedDemoIfEmpty(cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo catalogue: %w", err)
		}
	}

	return db, r, nil
}

func seedDemoIfEmpty(cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		return errors.New("demo seeding is not allowed in production")
	}

	var styles int64
	if err := db.Model(&models.Style{}).Count(&styles).Error; err != nil {
		return err
	}
	if styles > 0 {
		middleware.Logger.Info("demo seed skipped, catalogue not empty", slog.Int64("styles", styles))
		return nil
	}

	_, err := seed.NewSeeder(db, seed.Options{NumUsers: 12, NumStyles: 40}).Seed(context.Background())
	return err
}
