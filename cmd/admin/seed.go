package main

import (
	"errors"
	"fmt"
	"log"

	"srefhub/internal/seed"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	opts := seed.Options{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake users, styles and engagement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect(true)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if cfg.IsProduction() {
				return errors.New("refusing to seed a production database")
			}

			log.Printf("seeding %d users and %d styles (clean=%t)", opts.NumUsers, opts.NumStyles, opts.ShouldClean)
			summary, err := seed.NewSeeder(db, opts).Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			log.Printf("created users=%d styles=%d likes=%d comments=%d follows=%d collections=%d",
				summary.Users, summary.Styles, summary.Likes, summary.Comments, summary.Follows, summary.Collections)
			log.Printf("every seeded user has the password %q", seed.Password)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.NumUsers, "users", 50, "number of users to create")
	flags.IntVar(&opts.NumStyles, "styles", 200, "number of styles to create")
	flags.BoolVar(&opts.ShouldClean, "clean", false, "delete existing catalogue data first")
	flags.BoolVar(&opts.SkipBcrypt, "skip-bcrypt", false, "store plaintext passwords (load tests only)")
	flags.IntVar(&opts.BatchSize, "batch-size", 500, "rows per insert batch")
	flags.IntVar(&opts.MaxDays, "max-days", 90, "spread created_at over this many past days")
	flags.Int64Var(&opts.RandSeed, "rand-seed", 0, "fixed random seed for reproducible data")
	return cmd
}

func resetCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every user, style and related row",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !confirm {
				return errors.New("reset deletes all data; pass --yes to confirm")
			}
			cfg, db, err := connect(false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if cfg.IsProduction() {
				return errors.New("refusing to reset a production database")
			}
			if err := seed.ClearData(db); err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
			log.Println("database emptied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the reset")
	return cmd
}
