package main

import (
	"fmt"

	"mini_thermostat/internal/config"
	"mini_thermostat/internal/service"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <card.yaml>",
		Short: "Validate a card configuration file (YAML or JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadCardFile(args[0])
			if err != nil {
				return err
			}
			if err := service.ValidateConfig(cfg); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (entity %s)\n", args[0], cfg.Entity)
			return nil
		},
	}
}
