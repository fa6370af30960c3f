/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/config"
)

const (
	serviceName     = "pngme.service"
	defaultUnitPath = "/etc/systemd/system/" + serviceName
)

func newServiceCmd() *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the pngme API server as a systemd service",
		Long: `Manage the pngme API server as a systemd service. The unit runs
'pngme serve' with the resolved configuration file and restarts on failure.`,
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install pngme as a systemd service",
		Long: `Install the pngme API server as a systemd service.

This will:
- Create or reuse the configuration file
- Write the systemd unit file
- Enable and optionally start the service

Examples:
  sudo pngme service install
  sudo pngme service install --data-dir /var/lib/pngme --user pngme`,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			user, _ := cmd.Flags().GetString("user")
			unitPath, _ := cmd.Flags().GetString("unit-path")
			startNow, _ := cmd.Flags().GetBool("start")
			skipSystemctl, _ := cmd.Flags().GetBool("no-systemctl")

			if !skipSystemctl && os.Geteuid() != 0 {
				return fmt.Errorf("service install requires root privileges (run with: sudo pngme service install)")
			}

			cfg := a.config
			if config.ConfigExists(a.configPath) {
				loaded, err := config.LoadConfig(a.configPath)
				if err != nil {
					return err
				}
				if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
					loaded.DataDir = dataDir
				}
				cfg = loaded
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Loaded existing configuration\n")
			} else {
				cfg, err = config.BootstrapConfig(a.configPath, cfg.DataDir)
				if err != nil {
					return fmt.Errorf("failed to bootstrap config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Created new configuration at %s\n", a.configPath)
			}
			if err := config.SaveConfig(cfg, a.configPath); err != nil {
				return err
			}

			binary, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to resolve pngme binary: %w", err)
			}

			unit := renderSystemdUnit(cfg, a.configPath, user, binary)
			if err := os.WriteFile(unitPath, []byte(unit), 0600); err != nil {
				return fmt.Errorf("failed to write systemd unit: %w", err)
			}
			a.logger.Info().Str("unit", unitPath).Msg("systemd unit written")
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", unitPath)

			if skipSystemctl {
				return nil
			}
			if err := runSystemctlCommand("daemon-reload"); err != nil {
				return fmt.Errorf("failed to reload systemd: %w", err)
			}
			if err := runSystemctlCommand("enable", serviceName); err != nil {
				return fmt.Errorf("failed to enable service: %w", err)
			}
			if startNow {
				if err := runSystemctlCommand("start", serviceName); err != nil {
					return fmt.Errorf("failed to start service: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Service started\n")
			}
			return nil
		},
	}
	installCmd.Flags().String("user", "pngme", "User to run the service as")
	installCmd.Flags().String("unit-path", defaultUnitPath, "Where to write the systemd unit")
	installCmd.Flags().Bool("start", true, "Start the service after installation")
	installCmd.Flags().Bool("no-systemctl", false, "Only write the unit file")

	uninstallCmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Stop, disable and remove the systemd service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Geteuid() != 0 {
				return fmt.Errorf("service uninstall requires root privileges")
			}
			// The service may already be stopped
			_ = runSystemctlCommand("stop", serviceName)
			_ = runSystemctlCommand("disable", serviceName)
			if err := os.Remove(defaultUnitPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove unit file: %w", err)
			}
			if err := runSystemctlCommand("daemon-reload"); err != nil {
				return fmt.Errorf("failed to reload systemd: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ pngme service uninstalled\n")
			fmt.Fprintf(cmd.OutOrStdout(), "Note: configuration and vault files were not removed\n")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show systemd service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystemctlCommand("status", serviceName)
		},
	}

	serviceCmd.AddCommand(installCmd, uninstallCmd, statusCmd)
	return serviceCmd
}

// renderSystemdUnit builds the unit file for the API server
func renderSystemdUnit(cfg *config.Config, configPath, user, binary string) string {
	return fmt.Sprintf(`[Unit]
Description=pngme API Server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, cfg.DataDir, filepath.Dir(configPath))
}

// runSystemctlCommand runs a systemctl command
func runSystemctlCommand(args ...string) error {
	c := exec.Command("systemctl", args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
