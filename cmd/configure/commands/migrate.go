package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  "Create any missing tables and indexes. Safe to run repeatedly.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(*config.Config, *database.DB) error {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Schema is up to date")
				return nil
			})
		},
	}
}
