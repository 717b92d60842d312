package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show storage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := buildManager()
			if err != nil {
				return err
			}
			res, err := mgr.StorageStats()
			if err != nil {
				return err
			}
			fmt.Printf("Storage path:  %s\n", res.StoragePath)
			fmt.Printf("Total dialogs: %d\n", res.TotalDialogs)
			fmt.Printf("Total size:    %s (%s bytes, %s MB)\n",
				humanize.Bytes(uint64(res.TotalSizeBytes)),
				humanize.Comma(res.TotalSizeBytes),
				res.TotalSizeMB)
			return nil
		},
	}
}
