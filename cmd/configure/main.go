package main

import (
	"fmt"
	"os"

	"github.com/Durgesh-2001/Booze-Delivery/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "boozedel-configure",
		Short:        "Operator tool for the Booze Del API",
		Long:         "CLI tool for schema setup, admin accounts, catalog imports and environment checks",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewAdminCmd())
	rootCmd.AddCommand(commands.NewProductsCmd())
	rootCmd.AddCommand(commands.NewEnvCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
