package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/hxtag"
	"github.com/pthm/hxtag/config"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Resolve an HTML file to stdout",
	Long: `Resolve every component tag in an HTML file and print the result.

The file is read from stdin when omitted or "-". Resolution errors are
printed with their source position and component stack.

Example:
  hxtag render -c hxtag.yaml pages/index.html
  echo '<hello-card name="Ada"></hello-card>' | hxtag render -c hxtag.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = renderCmd.MarkFlagRequired("config")
}

func runRender(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var src []byte
	if len(args) == 0 || args[0] == "-" {
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	a, err := buildApp(cfg, newLogger(cmd.ErrOrStderr(), cfg.Dev), nil)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	out, err := a.router.Resolver().Resolve(context.Background(), string(src))
	if err != nil {
		var rerr *hxtag.ResolveError
		if errors.As(err, &rerr) {
			return fmt.Errorf("render failed:\n%s", rerr.Format())
		}
		return fmt.Errorf("render failed: %w", err)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}
