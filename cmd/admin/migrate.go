package main

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"srefhub/internal/database"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, inspect or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := connect(false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			log.Println("sql migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "auto",
		Short: "Run GORM automigrations for every model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect(false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			cfg.DBSchemaMode = database.SchemaModeAuto
			if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
				return fmt.Errorf("auto schema apply failed: %w", err)
			}
			log.Println("automigrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect(false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}
			log.Printf("mode=%s env=%s sql=%t automigrate=%t applied=%d pending=%d",
				status.Mode, status.Environment, status.SQL, status.AutoORM,
				len(status.Applied), len(status.Pending))
			for _, row := range status.Applied {
				log.Printf("applied: %06d_%s at %s", row.Version, row.Name, row.AppliedAt.Format(time.RFC3339))
			}
			for _, m := range status.Pending {
				log.Printf("pending: %s", m)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down <version>",
		Short: "Roll back one applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}

			_, db, err := connect(false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			log.Printf("rolled back migration %d", version)
			return nil
		},
	})

	return cmd
}
