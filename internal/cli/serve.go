package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/internal/server"
	"github.com/matzehuels/flowcanvas/pkg/buildinfo"
	"github.com/matzehuels/flowcanvas/pkg/cache"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout engine over HTTP",
		Long: `Serve the layout engine over HTTP.

Layouts and renders are kept in an in-memory LRU cache sized by
server.cache_entries; identical concurrent requests are computed once.
The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg := c.cfg.Server
	runner := pipeline.NewRunner(cache.NewMemoryCache(cfg.CacheEntries), nil, c.Logger)
	defer runner.Close()

	srv := server.New(runner,
		server.WithLogger(c.Logger),
		server.WithTimeout(cfg.Timeout.Duration),
		server.WithDefaults(c.baseOptions()),
	)

	printInfo("%s %s listening on %s", appName, buildinfo.Version, addr)
	err := srv.ListenAndServe(ctx, addr)
	if errors.Is(err, context.Canceled) {
		printSuccess("Server stopped")
		return nil
	}
	return err
}
