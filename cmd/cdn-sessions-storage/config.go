package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/youwol/cdn-sessions-storage/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the service configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show <environment>",
	Short: "Resolve an environment and print its configuration",
	Long: `Resolve the configuration of an environment exactly as serve would and
print it as YAML. Secrets are masked. No startup hook is run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		cfg, err := resolve(cmd.Context(), args[0], settings)
		if err != nil {
			return err
		}
		defer closeBackends(cfg)

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg.View()); err != nil {
			return fmt.Errorf("encode configuration: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
