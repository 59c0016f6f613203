// Command admin bundles operator tasks: schema migrations, demo data and
// subscription tiers, plus API document checks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"srefhub/internal/config"
	"srefhub/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "srefhub operator commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(migrateCmd(), seedCmd(), resetCmd(), setTierCmd(), apiCmd())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// connect loads configuration and opens the database. applySchema controls
// whether the configured schema mode runs on connect.
func connect(applySchema bool) (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: applySchema})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
