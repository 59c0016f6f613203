package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"srefhub/internal/models"
	"srefhub/internal/repository"
	"srefhub/internal/service"

	"github.com/spf13/cobra"
)

func setTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-tier <userId> <free|premium>",
		Short: "Change a user's subscription tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			tier := models.SubscriptionTier(strings.ToLower(strings.TrimSpace(args[1])))

			_, db, err := connect(false)
			if err != nil {
				return err
			}
			defer closeDB(db)

			users := service.NewUserService(repository.NewUserRepository(db), nil, nil, nil, nil)
			user, err := users.SetTier(cmd.Context(), uint(id), tier)
			if err != nil {
				return err
			}
			log.Printf("user %d (%s) is now %s", user.ID, user.Email, user.Tier)
			return nil
		},
	}
}
