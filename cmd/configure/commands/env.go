package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
)

// NewEnvCmd creates the env command
func NewEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect server environment configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check that every required key is set",
		Long:  "Report each required key without printing its value. Exits non-zero when a key is missing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkEnv(config.DotEnvSource(), cmd.OutOrStdout())
		},
	})
	return cmd
}

// checkEnv reports every required key, unlike config.Validate which stops at the first gap
func checkEnv(src config.Source, out io.Writer) error {
	var missing []string
	for _, key := range config.RequiredKeys {
		if err := config.Validate(src, []string{key}); err != nil {
			missing = append(missing, key)
			fmt.Fprintf(out, "✗ %s is missing\n", key)
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", key)
	}

	if v, ok := src("ALLOWED_ORIGINS"); ok {
		origins := middleware.ParseAllowedOrigins(v)
		fmt.Fprintf(out, "  %d allowed origin(s): %s\n", len(origins), strings.Join(origins, ", "))
	}

	if len(missing) > 0 {
		return fmt.Errorf("%d required key(s) missing: %s", len(missing), strings.Join(missing, ", "))
	}
	return nil
}
