package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dialog-id>",
		Short: "Print a dialog as readable text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := buildManager()
			if err != nil {
				return err
			}
			fmt.Println(mgr.RenderForReading(args[0]))
			return nil
		},
	}
}
