// Package database handles database connections and migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"srefhub/internal/config"
	"srefhub/internal/middleware"
	"srefhub/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB is the global database connection instance.
var DB *gorm.DB

// readDB is the optional read replica. Nil means reads go to DB.
var readDB *gorm.DB

// GetReadDB returns the read replica, or nil when none is configured.
func GetReadDB() *gorm.DB {
	return readDB
}

// ConnectOptions controls side effects of ConnectWithOptions.
type ConnectOptions struct {
	// ApplySchema runs migrations according to DB_SCHEMA_MODE after connecting.
	ApplySchema bool
}

// Connect opens the primary (and optional replica) connection and applies the schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
}

// ConnectWithOptions opens the database connections described by cfg.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	dbInstance, err := open(primaryDialector(cfg), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := configurePool(dbInstance, cfg); err != nil {
		return nil, err
	}
	middleware.Logger.Info("Database connected successfully", slog.String("driver", dbInstance.Name()))

	if opts.ApplySchema {
		if err := ApplySchema(context.Background(), dbInstance, cfg); err != nil {
			return nil, err
		}
	}

	readDB = nil
	if cfg.DBReadHost != "" && dbInstance.Name() == "postgres" {
		replica, err := open(postgres.Open(postgresDSN(cfg.DBReadHost, cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword, cfg.DBName, cfg.DBSSLMode)), cfg)
		if err != nil {
			middleware.Logger.Warn("read replica unavailable, reading from primary", slog.String("error", err.Error()))
		} else if err := configurePool(replica, cfg); err == nil {
			readDB = replica
			middleware.Logger.Info("Read replica connected", slog.String("host", cfg.DBReadHost))
		}
	}

	DB = dbInstance
	return DB, nil
}

func open(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	slow := time.Duration(cfg.DBSlowQueryMS) * time.Millisecond
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newQueryLogger(middleware.Logger, slow),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(observability.NewDatabaseMetrics()); err != nil {
		return nil, fmt.Errorf("register query metrics: %w", err)
	}
	return db, nil
}

func primaryDialector(cfg *config.Config) gorm.Dialector {
	if cfg.DBDriver == "sqlite" {
		path := cfg.DBPath
		if path == "" {
			path = "srefhub.db"
		}
		return sqlite.Open(path + "?_foreign_keys=on&_busy_timeout=5000")
	}
	return postgres.Open(postgresDSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode))
}

func postgresDSN(host, port, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode,
	)
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}
