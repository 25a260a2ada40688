/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teamtrack/apiserver/config"
	"github.com/teamtrack/apiserver/internal/db"
	"github.com/teamtrack/apiserver/internal/store"
	"github.com/teamtrack/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

var seedAdminFlags struct {
	username string
	email    string
	password string
	name     string
	surname  string
}

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed initial data",
}

// seedAdminCmd creates the first admin account. Unlike accounts created
// through registration, the seeded admin is ACTIVE immediately.
var seedAdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create an active admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedAdminFlags.password == "" {
			return errors.New("--password is required")
		}

		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() {
			_ = dbConn.Close()
		}()

		hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminFlags.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("password hash failed: %w", err)
		}

		users := store.NewUserRepository(dbConn)
		user, err := users.Create(cmd.Context(), types.User{
			Username:     seedAdminFlags.username,
			Email:        seedAdminFlags.email,
			Name:         seedAdminFlags.name,
			Surname:      seedAdminFlags.surname,
			Role:         types.RoleAdmin,
			Status:       types.StatusActive,
			PasswordHash: string(hash),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return errors.New("an account with that email or username already exists")
			}
			return fmt.Errorf("create admin failed: %w", err)
		}

		fmt.Printf("created admin %q (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&seedAdminFlags.username, "username", "admin", "admin username")
	seedAdminCmd.Flags().StringVar(&seedAdminFlags.email, "email", "admin@localhost", "admin email")
	seedAdminCmd.Flags().StringVar(&seedAdminFlags.password, "password", "", "admin password (required)")
	seedAdminCmd.Flags().StringVar(&seedAdminFlags.name, "name", "Site", "admin first name")
	seedAdminCmd.Flags().StringVar(&seedAdminFlags.surname, "surname", "Admin", "admin surname")
}
