package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <file> <type>",
		Short: "Print the message hidden in a PNG file",
		Long: `Print the payload of the first chunk of the given type.

Example:
  pngme decode ./dice.png ruSt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			msg, err := a.messageService().Decode(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to decode message: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}
