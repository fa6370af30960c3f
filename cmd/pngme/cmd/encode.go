package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/pngme/pkg/message"
)

func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <file> <type> <message> [output]",
		Short: "Hide a message in a PNG file",
		Long: `Append a chunk of the given type carrying message to a PNG file.

The file is rewritten in place unless an output path is given. The chunk
type must be four ASCII letters with a lowercase third letter.

Example:
  pngme encode ./dice.png ruSt "This is a secret message!"
  pngme encode ./dice.png ruSt "secret" ./dice-secret.png`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			req := message.EncodeRequest{
				Path:      args[0],
				ChunkType: args[1],
				Message:   args[2],
			}
			if len(args) == 4 {
				req.OutputPath = args[3]
			}

			c, err := a.messageService().Encode(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to encode message: %w", err)
			}

			out := req.OutputPath
			if out == "" {
				out = req.Path
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Encoded %d bytes into %s as %s chunk\n", c.Length(), out, c.Type())
			return nil
		},
	}
}
