package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"srefhub/internal/config"
	"srefhub/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says which schema mechanisms ApplySchema will run.
type SchemaPlan struct {
	Mode    string
	SQL     bool
	AutoORM bool
}

// SchemaStatus is a SchemaPlan plus migration bookkeeping.
type SchemaStatus struct {
	SchemaPlan
	Environment string
	Applied     []SchemaMigration
	Pending     []Migration
}

// planSchema decides from config alone. Hybrid runs the SQL migrations
// everywhere and lets AutoMigrate fill gaps outside production-like
// environments; auto in production needs an explicit opt-in.
func planSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	env := strings.ToLower(strings.TrimSpace(cfg.Env))
	prodLike := env == "production" || env == "prod" || env == "staging" || env == "stage"

	plan := SchemaPlan{Mode: mode}
	switch mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeHybrid:
		plan.SQL, plan.AutoORM = true, !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.AutoORM = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

// planFor adjusts the plan to the connected dialect. The embedded SQL is
// PostgreSQL; other dialects (sqlite in tests and local runs) are built
// from the models instead.
func planFor(db *gorm.DB, cfg *config.Config) (SchemaPlan, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return plan, err
	}
	if db.Name() != "postgres" {
		plan.SQL, plan.AutoORM = false, true
	}
	return plan, nil
}

// ApplySchema brings the schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planFor(db, cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.AutoORM {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("auto schema mode with destructive changes allowed")
		}
		middleware.Logger.Info("running model automigration",
			slog.String("mode", plan.Mode), slog.String("driver", db.Name()))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports what ApplySchema would do without changing
// anything except creating schema_migrations when missing.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planFor(db, cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan, Environment: cfg.Env}
	if !plan.SQL {
		return status, nil
	}

	m, err := embeddedMigrator(db)
	if err != nil {
		return nil, err
	}
	if status.Applied, err = m.Applied(ctx); err != nil {
		return nil, err
	}
	if status.Pending, err = m.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
