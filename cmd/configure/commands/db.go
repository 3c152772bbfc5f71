// Package commands implements the subcommands of the configure CLI.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
)

// withDatabase loads configuration, opens Postgres with the schema applied and runs fn
func withDatabase(ctx context.Context, fn func(cfg *config.Config, db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(cfg, db)
}
