package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPrintCmd() *cobra.Command {
	printCmd := &cobra.Command{
		Use:   "print <file>",
		Short: "List the chunks of a PNG file",
		Long: `List every chunk of a PNG file with its length, CRC and property bits.

Example:
  pngme print ./dice.png
  pngme print ./dice.png --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			infos, err := a.messageService().Print(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read chunks: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tTYPE\tLENGTH\tCRC\tCRITICAL\tPUBLIC\tSAFE TO COPY")
			for _, info := range infos {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%t\t%t\t%t\n",
					info.Index, info.Type, info.Length, info.CRC, info.Critical, info.Public, info.SafeToCopy)
			}
			return w.Flush()
		},
	}

	printCmd.Flags().Bool("json", false, "Print chunks as JSON")
	return printCmd
}
