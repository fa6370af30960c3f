package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/di"
	"github.com/ssargent/pngme/pkg/storage"
)

func newVaultCmd() *cobra.Command {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage chunks in the local vault",
		Long: `Store, read and delete chunks in the vault under the data directory.
This is the same store the serve command uses.`,
	}

	vaultCmd.AddCommand(newVaultPutCmd(), newVaultGetCmd(), newVaultDeleteCmd(), newVaultListCmd())
	return vaultCmd
}

// withVault opens the vault for the duration of fn
func withVault(a *app, fn func(vault di.Vault) error) error {
	vault, err := a.container.OpenVault(storage.Config{
		Path:   filepath.Join(a.config.DataDir, "vault"),
		Sync:   true,
		Logger: a.logger,
	})
	if err != nil {
		return err
	}
	defer vault.Close()
	return fn(vault)
}

func newVaultPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <type> <message>",
		Short: "Store a message chunk",
		Long: `Store a message as a chunk and print its id.

Example:
  pngme vault put ruSt "This is a secret message!"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			c, err := a.messageService().NewChunk(args[0], []byte(args[1]))
			if err != nil {
				return fmt.Errorf("invalid chunk: %w", err)
			}

			return withVault(a, func(vault di.Vault) error {
				id, err := vault.Put(c)
				if err != nil {
					return fmt.Errorf("failed to store chunk: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id.String())
				return nil
			})
		},
	}
}

func newVaultGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print the message of a stored chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid chunk id %q: %w", args[0], err)
			}

			return withVault(a, func(vault di.Vault) error {
				c, err := vault.Get(id)
				if err != nil {
					return fmt.Errorf("failed to get chunk: %w", err)
				}
				msg, err := c.DataString()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
}

func newVaultDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid chunk id %q: %w", args[0], err)
			}

			return withVault(a, func(vault di.Vault) error {
				if err := vault.Delete(id); err != nil {
					return fmt.Errorf("failed to delete chunk: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}
}

func newVaultListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored chunks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			return withVault(a, func(vault di.Vault) error {
				entries, err := vault.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list chunks: %w", err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTYPE\tLENGTH\tCRC\tCREATED")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
						e.ID, e.Chunk.Type(), e.Chunk.Length(), e.Chunk.CRC(), e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
				}
				return w.Flush()
			})
		},
	}
}
