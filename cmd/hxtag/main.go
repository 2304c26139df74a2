// Package main is the entry point for the hxtag CLI.
//
// The CLI serves a site built from declarative components and HTML pages
// described in a YAML file. Applications that define components in Go
// use the library directly instead.
//
// Usage:
//
//	hxtag serve -c hxtag.yaml            # Serve pages and component routes
//	hxtag render -c hxtag.yaml page.html # Resolve one file to stdout
//	hxtag validate -c hxtag.yaml         # Validate configuration
//	hxtag version                        # Show version info
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "hxtag",
	Short: "Server-side custom tags for htmx",
	Long: `hxtag renders HTML pages containing custom component tags on the server.

Components declare typed props, a template and the routes they call.
Pages are plain HTML files; every registered tag inside them is
resolved recursively before the page is sent.

Quick start:
  1. Create a config file (hxtag.yaml) and a pages directory
  2. Run: hxtag serve -c hxtag.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  addr: :8080
  pages_dir: ./pages
  components:
    - tag: hello-card
      props:
        - name: name
          default: world
      template: <p>Hello, {{ .Props.name }}!</p>`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "hxtag %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// newLogger creates the CLI logger: JSON at info level, or text at debug
// level in dev mode.
func newLogger(w io.Writer, dev bool) *slog.Logger {
	if dev {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
