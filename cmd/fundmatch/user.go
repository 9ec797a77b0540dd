package main

import (
	"fmt"
	"strings"

	"github.com/ajharbinger/policy-fund-matcher/internal/auth"
	"github.com/ajharbinger/policy-fund-matcher/internal/database"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/ajharbinger/policy-fund-matcher/pkg/config"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}

	var (
		email    string
		password string
		role     string
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user directly in the database",
		Long: `Create a user directly in the database named by DATABASE_URL.

Use this to bootstrap the first admin; later users can be created through
POST /api/v1/admin/users.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.ValidRole(role) {
				return fmt.Errorf("unknown role %q", role)
			}

			_ = godotenv.Load()
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("DATABASE_URL is required")
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			user := &models.User{
				ID:           uuid.New(),
				Email:        strings.ToLower(strings.TrimSpace(email)),
				PasswordHash: hash,
				Role:         role,
			}
			if err := repository.NewRepositories(db.DB).User.Create(user); err != nil {
				return err
			}

			a.log.Info("User created", "email", user.Email, "role", user.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "initial password")
	create.Flags().StringVar(&role, "role", string(models.RoleAdmin), "admin or consultant")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
