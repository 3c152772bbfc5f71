package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Durgesh-2001/Booze-Delivery/internal/auth"
	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/validation"
)

// adminPasswordEnv lets scripts pass the password without exposing it in the process list
const adminPasswordEnv = "ADMIN_PASSWORD"

// NewAdminCmd creates the admin command with create and token subcommands
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminTokenCmd())
	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator or promote an existing user",
		Long: "Create an administrator account. If the email is already registered the user is promoted to admin.\n" +
			"The password is read from --password or the " + adminPasswordEnv + " environment variable.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(adminPasswordEnv)
			}
			return withDatabase(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				user, promoted, err := createAdmin(cmd.Context(), database.NewUserRepository(db), name, email, password)
				if err != nil {
					return err
				}
				if promoted {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ Promoted %s to admin (id %s)\n", user.Email, user.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ Created admin %s (id %s)\n", user.Email, user.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name for a new account")
	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password for a new account")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// createAdmin registers a new admin, or promotes the existing account with that email.
// Promotion leaves the existing password untouched.
func createAdmin(ctx context.Context, users database.UserStore, name, email, password string) (*models.User, bool, error) {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return nil, false, errors.New("--email is required")
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return existing, true, nil
		}
		existing.Role = models.RoleAdmin
		if err := users.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("failed to promote user: %w", err)
		}
		return existing, true, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	if len(password) < auth.MinPasswordLength {
		return nil, false, fmt.Errorf("password must be at least %d characters (use --password or %s)", auth.MinPasswordLength, adminPasswordEnv)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	user := &models.User{
		Name:         validation.SanitizeText(name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, false, nil
}

func newAdminTokenCmd() *cobra.Command {
	var email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API token",
		Long:  "Sign a token with ADMIN_JWT_SECRET for an existing administrator, for scripts and smoke tests.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				if ttl <= 0 {
					ttl = cfg.TokenTTL
				}
				token, err := adminToken(cmd.Context(), database.NewUserRepository(db), auth.NewTokens(cfg.AdminJWTSecret, ttl), email)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// adminToken issues a token for the admin with email. Non-admin accounts are refused.
func adminToken(ctx context.Context, users database.UserStore, tokens *auth.Tokens, email string) (string, error) {
	user, err := users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", fmt.Errorf("no user with email %s", email)
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsAdmin() {
		return "", fmt.Errorf("%s is not an admin; run 'admin create --email %s' first", user.Email, user.Email)
	}
	return tokens.Issue(user)
}
