// Package cmd provides the CLI commands for zen.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/logging"
	"github.com/wrath-codes/zenith/pkg/version"
)

// globalOptions holds persistent flags shared by every command.
type globalOptions struct {
	debug  bool
	dir    string
	format string
}

// NewRootCmd creates the root command for the zen CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	var loggingCleanup func()

	cmd := &cobra.Command{
		Use:   "zen",
		Short: "Local knowledge base with hybrid search and decision graphs",
		Long: `zen keeps a project's findings, hypotheses, insights, research, tasks,
issues and studies in a local SQLite knowledge base, next to an index of
package symbols and documentation chunks.

Search blends vector similarity with full-text relevance, and links between
entries form a decision graph that can be analyzed for order, paths and
central nodes.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			// serve installs its own file-only logger.
			if c.Name() == "serve" {
				return nil
			}
			cfg := logging.DefaultConfig()
			if opts.debug || os.Getenv("ZENITH_DEBUG") != "" {
				cfg = logging.DebugConfig()
			}
			logger, cleanup, err := logging.Setup(cfg)
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			loggingCleanup = cleanup
			slog.SetDefault(logger)
			slog.Debug("command_started", slog.String("command", c.CommandPath()))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if loggingCleanup != nil {
				loggingCleanup()
				loggingCleanup = nil
			}
			return nil
		},
	}

	cmd.SetVersionTemplate("zen version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to stderr and ~/.zenith/logs/")
	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "Project directory (default: current directory)")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "Output format: text, json")

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newLinkCmd(opts))
	cmd.AddCommand(newGraphCmd(opts))
	cmd.AddCommand(newRefsCmd(opts))
	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newReindexCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and renders any error to stderr.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		slog.LogAttrs(context.Background(), slog.LevelError, "command_failed", zerrors.LogAttrs(err)...)
		renderError(root, err)
	}
	return err
}

// renderError writes err in the format selected by --format.
func renderError(root *cobra.Command, err error) {
	w := root.ErrOrStderr()
	if f, _ := root.PersistentFlags().GetString("format"); f == "json" {
		if data, jerr := zerrors.FormatJSON(err); jerr == nil {
			_, _ = fmt.Fprintln(w, string(data))
			return
		}
	}
	_, _ = fmt.Fprint(w, zerrors.FormatForCLI(err))
}
