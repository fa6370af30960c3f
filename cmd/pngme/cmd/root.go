/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/config"
	"github.com/ssargent/pngme/pkg/di"
	"github.com/ssargent/pngme/pkg/logging"
	"github.com/ssargent/pngme/pkg/message"
)

// skipConfigAnnotation marks commands that manage the config file themselves
const skipConfigAnnotation = "pngme/skip-config"

type appKey struct{}

// app is the per-invocation state built by the root command
type app struct {
	config     *config.Config
	configPath string
	logger     zerolog.Logger
	container  *di.Container
}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}

func (a *app) messageService() *message.Service {
	return message.NewService(message.Config{
		DefaultType:  a.config.Chunks.DefaultType,
		MaxChunkSize: a.config.Security.MaxChunkSize,
	}, a.logger)
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd(container *di.Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pngme",
		Short: "pngme - hide messages in PNG files",
		Long: `pngme hides secret messages inside PNG files as ancillary chunks.

Messages are stored in chunks of a caller-chosen 4-letter type and can be
decoded, listed or removed again. The serve command exposes the same
operations over a REST API backed by a chunk vault.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupApp(cmd, container)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default ~/.config/pngme/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the chunk vault")

	rootCmd.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newRemoveCmd(),
		newPrintCmd(),
		newInitCmd(),
		newServeCmd(),
		newVaultCmd(),
		newServiceCmd(),
	)

	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure.
// This is called by main.main().
func Execute(container *di.Container) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd(container).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// setupApp resolves the config file, applies flag overrides and stores the
// result in the command context
func setupApp(cmd *cobra.Command, container *di.Container) error {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if cmd.Annotations[skipConfigAnnotation] == "" {
		switch {
		case config.ConfigExists(configPath):
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		case explicit:
			return fmt.Errorf("config file does not exist: %s (run 'pngme init' first)", configPath)
		}
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New("pngme", logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Out:    cmd.ErrOrStderr(),
	})
	logger.Debug().Str("config", configPath).Str("command", cmd.Name()).Msg("configuration resolved")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, &app{
		config:     cfg,
		configPath: configPath,
		logger:     logger,
		container:  container,
	}))
	return nil
}
