package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm/hxtag/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate an hxtag configuration file without starting the server.

This command parses the YAML, expands environment variables, compiles
every component template and registers the components, routes and pages
exactly as serve would. It's useful for CI pipelines.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  hxtag validate -c hxtag.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a, err := buildApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Addr:       %s\n", cfg.Addr)
	fmt.Fprintf(out, "  Components: %d\n", a.registry.Len())
	fmt.Fprintf(out, "  Routes:     %d\n", a.registry.Routes().Len())
	fmt.Fprintf(out, "  Pages:      %d\n", len(a.pages))
	fmt.Fprintf(out, "  Fragments:  %t\n", a.router.Fragments() != nil)
	return nil
}
