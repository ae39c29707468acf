package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wilnd/excel-handle/internal/config"
)

func newConfigCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(newConfigInitCmd(st))
	return cmd
}

func newConfigInitCmd(st *cliState) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long: `init writes the configuration currently in effect (defaults, then an
existing config file, environment variables and --labels/--log-* flags) as TOML
to the --config path, or to config.toml next to the executable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := st.info.Path
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(st.cfg, path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			st.logger.Debug().Str("path", path).Msg("config written")
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
