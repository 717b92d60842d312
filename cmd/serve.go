package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dialogkeep/dialogkeep/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long:  "Serves dialog tools and resources to an MCP client over stdin/stdout until the client disconnects.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	mgr, cfg, err := buildManager()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stdout belongs to the MCP protocol; status goes to stderr.
	fmt.Fprintf(os.Stderr, "dialogkeep %s: serving MCP on stdio (storage: %s)\n", appVersion, cfg.StorageDir)

	srv := mcpserver.New(mgr, appVersion)
	return srv.Run(ctx)
}
