/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pngme configuration file",
		Long: `Create a configuration file with a freshly generated API key.

This command will:
- Write the default settings to the config path
- Generate a random API key for the REST API

Examples:
  pngme init
  pngme init --config ./pngme.yaml --data-dir ./vault --print-key`,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			printKey, _ := cmd.Flags().GetBool("print-key")

			if config.ConfigExists(a.configPath) && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s. Use --force to overwrite.\n", a.configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(a.configPath, a.config.DataDir)
			if err != nil {
				return fmt.Errorf("failed to bootstrap config: %w", err)
			}
			a.logger.Info().Str("config", a.configPath).Str("data_dir", cfg.DataDir).Msg("configuration created")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ Configuration created at %s\n", a.configPath)
			if printKey {
				fmt.Fprintf(out, "\n🔑 API Key: %s\n", cfg.Security.APIKey)
				fmt.Fprintf(out, "\n⚠️  Store this key securely! It is also saved in %s\n", a.configPath)
			}
			fmt.Fprintf(out, "\nYou can now start the server with:\n  pngme serve --config %s\n", a.configPath)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
	return initCmd
}
