package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newListCmd() *cobra.Command {
	var (
		limit  int
		tags   []string
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved dialogs",
		Example: `  dialogkeep list --limit 10
  dialogkeep list --tag golang --tag mcp
  dialogkeep list --search "retry logic"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(limit, tags, search)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max dialog files to inspect (default from config)")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "filter by tag (repeatable, OR semantics)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search in titles and free-form content")

	return cmd
}

func runList(limit int, tags []string, search string) error {
	mgr, cfg, err := buildManager()
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.ListLimit
	}

	res, err := mgr.List(limit, tags, search)
	if err != nil {
		return err
	}

	// Human table on a terminal, JSON when piped.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if len(res.Dialogs) == 0 {
		fmt.Printf("No dialogs found in %s\n", res.StoragePath)
		return nil
	}
	fmt.Printf("%-20s  %-40s  %-25s  %s\n", "ID", "TITLE", "SAVED", "TAGS")
	for _, d := range res.Dialogs {
		fmt.Printf("%-20s  %-40s  %-25s  %s\n",
			d.ID, clip(d.Title, 40), d.Timestamp, strings.Join(d.Tags, ", "))
	}
	fmt.Printf("\n%d dialog(s) in %s\n", res.Total, res.StoragePath)
	return nil
}

// clip shortens s to max runes with an ellipsis.
func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
