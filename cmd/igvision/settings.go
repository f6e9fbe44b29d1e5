package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igvision/pkg/auth"
	"igvision/pkg/config"
	errs "igvision/pkg/errors"
	"igvision/pkg/ui"
)

func newSettingsCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and create igvision settings files",
		Long: `Settings are read, in increasing priority, from defaults, a YAML file
(--settings, .igvision.yaml or ~/.config/igvision/config.yaml), a .env file,
IGVISION_* environment variables and command-line flags.`,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default settings to a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ".igvision.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return errs.ConfigLoad(path, fmt.Errorf("file already exists"))
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return errs.Write(path, err)
			}
			ui.NewPrinter(cmd.OutOrStdout(), false).Success("Wrote " + path)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(global.settings, changedFlags(cmd, global))
			if err != nil {
				return errs.ConfigLoad(global.settings, err)
			}
			return showSettings(cmd, cfg)
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the settings and the files they reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(global.settings, changedFlags(cmd, global))
			if err != nil {
				return errs.ConfigLoad(global.settings, err)
			}

			printer := ui.NewPrinter(cmd.OutOrStdout(), false)
			missing := 0
			for _, path := range []string{cfg.Model.NamesFile, cfg.Model.ConfigFile, cfg.Model.WeightsFile} {
				if _, err := os.Stat(path); err != nil {
					printer.Warning("Model file not found", path)
					missing++
				}
			}
			if missing > 0 {
				return errs.ConfigLoad(global.settings, fmt.Errorf("%d model files missing", missing))
			}
			printer.Success("Settings are valid")
			return nil
		},
	}

	cmd.AddCommand(initCmd, show, validate)
	return cmd
}

func showSettings(cmd *cobra.Command, cfg *config.Config) error {
	display := *cfg
	display.Instagram.SessionID = auth.MaskSecret(display.Instagram.SessionID)
	display.Instagram.CSRFToken = auth.MaskSecret(display.Instagram.CSRFToken)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format settings: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
