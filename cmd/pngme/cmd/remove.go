package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <file> <type>",
		Short: "Remove a hidden message from a PNG file",
		Long: `Remove the first chunk of the given type and rewrite the file.

Example:
  pngme remove ./dice.png ruSt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			removed, err := a.messageService().Remove(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to remove chunk: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", removed)
			return nil
		},
	}
}
