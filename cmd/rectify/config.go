package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying defaults, the config file and
RECTIFY_* environment overrides. Secrets are redacted.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)

	return err
}
