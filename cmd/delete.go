package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <dialog-id>",
		Short: "Delete a saved dialog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := buildManager()
			if err != nil {
				return err
			}
			res, err := mgr.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Println(res.Message)
			return nil
		},
	}
}
