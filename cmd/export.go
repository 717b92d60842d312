package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <dialog-id>",
		Short: "Export a dialog as a Markdown file",
		Args:  cobra.ExactArgs(1),
		Example: `  dialogkeep export 20260825_141503
  dialogkeep export 20260825_141503 -o ./notes/design-chat.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := buildManager()
			if err != nil {
				return err
			}
			res, err := mgr.ExportMarkdown(args[0], output)
			if err != nil {
				return err
			}
			fmt.Printf("Exported to %s\n", res.FilePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <storage>/<id>.md)")

	return cmd
}
