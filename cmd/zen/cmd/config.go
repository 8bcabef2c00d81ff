package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wrath-codes/zenith/internal/config"
	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/output"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create configuration",
		Long: `Show or create zen configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/zenith/config.yaml)
  3. Project config (.zenith.yaml)
  4. Environment variables (ZENITH_*)`,
		Example: `  # Show effective configuration
  zen config show

  # Write .zenith.yaml with defaults in the project root
  zen config init

  # Write the user config instead
  zen config init --user`,
	}

	cmd.AddCommand(newConfigShowCmd(g))
	cmd.AddCommand(newConfigInitCmd(g))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, format, err := writerFor(cmd, g)
			if err != nil {
				return err
			}
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			if format == output.FormatJSON {
				return out.JSON(p.config)
			}
			data, err := yaml.Marshal(p.config)
			if err != nil {
				return zerrors.InternalError("encode configuration", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# project: %s\n%s", p.root, data)
			return err
		},
	}
}

func newConfigInitCmd(g *globalOptions) *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _, err := writerFor(cmd, g)
			if err != nil {
				return err
			}

			var path string
			if user {
				path = config.GetUserConfigPath()
			} else {
				p, err := loadProject(g)
				if err != nil {
					return err
				}
				path = filepath.Join(p.root, config.ProjectConfigName)
			}

			if _, err := os.Stat(path); err == nil && !force {
				out.Warning("Configuration already exists")
				out.Statusf("📁", "Location: %s", path)
				out.Status("💡", "Use --force to overwrite with defaults")
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return zerrors.New(zerrors.ErrCodeFileWrite, "create config directory", err)
			}
			if err := config.NewConfig().WriteYAML(path); err != nil {
				return zerrors.New(zerrors.ErrCodeFileWrite, "write configuration", err).WithDetail("path", path)
			}

			out.Success("Created configuration")
			out.Statusf("📁", "Location: %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
