/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/api"
	"github.com/ssargent/pngme/pkg/config"
	"github.com/ssargent/pngme/pkg/storage"
)

// autoAPIKey asks serve to generate a key for the lifetime of the process
const autoAPIKey = "auto"

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the pngme REST API server.

The server stores chunks in a vault under the data directory and can
encode, decode and remove messages in uploaded PNG files. Every /api/v1
route requires the X-API-Key header; /metrics is open for scraping.

Examples:
  pngme serve
  pngme serve --port 9000 --bind 0.0.0.0 --api-key mysecretkey`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			cfg := a.config

			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.Port = port
			}
			if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
				cfg.Bind = bind
			}
			if apiKey, _ := cmd.Flags().GetString("api-key"); apiKey != "" {
				cfg.Security.APIKey = apiKey
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if cfg.Security.APIKey == "" || cfg.Security.APIKey == autoAPIKey {
				key, err := config.GenerateSecureKey(32)
				if err != nil {
					return err
				}
				cfg.Security.APIKey = key
				a.logger.Warn().Str("api_key", key).Msg("no API key configured, generated one for this run")
			}

			if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data dir: %w", err)
			}
			vault, err := a.container.OpenVault(storage.Config{
				Path:   filepath.Join(cfg.DataDir, "vault"),
				Logger: a.logger,
			})
			if err != nil {
				return err
			}
			defer vault.Close()

			serverConfig := api.ServerConfig{
				Port:        cfg.Port,
				Bind:        cfg.Bind,
				APIKey:      cfg.Security.APIKey,
				MaxBodySize: maxBodySize(cfg.Security.MaxChunkSize),
			}

			starter := a.container.GetServerFactory().CreateServerStarter()
			if err := starter.StartServer(cmd.Context(), vault, a.messageService(), serverConfig, a.logger); err != nil {
				return fmt.Errorf("error starting server: %w", err)
			}
			return nil
		},
	}

	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().String("bind", "", "Address to bind to (overrides config)")
	serveCmd.Flags().String("api-key", "", "API key for authentication (overrides config)")
	return serveCmd
}

// maxBodySize leaves room for a PNG around the largest allowed message
func maxBodySize(maxChunkSize uint32) int64 {
	return int64(maxChunkSize) + 16<<20
}
