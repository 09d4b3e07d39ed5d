package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sleepsun/internal/platform/config"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect and write configuration"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.loadOptions())
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd, cfg)
			}
			payload, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			if cfg.File != "" {
				printf(cmd, "# %s\n", cfg.File)
			}
			_, err = cmd.OutOrStdout().Write(payload)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the data directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.loadOptions()
			opts.ConfigFile = ""
			cfg, err := config.Load(opts)
			if err != nil {
				return err
			}
			path := flags.configFile
			if path == "" {
				path = cfg.DefaultFile()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			printf(cmd, "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cfgCmd.AddCommand(showCmd, initCmd)
	return cfgCmd
}
