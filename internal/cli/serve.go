package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph over a JSON HTTP API",
		Long: `Serve the workspace over a JSON HTTP API under /v1, with /health and,
when enabled in config, Prometheus metrics on /metrics.

--watch also reloads the graph from the configured watch.files whenever
they change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				if addr == "" {
					addr = s.cfg.Server.Addr
				}
				if !verbose {
					gin.SetMode(gin.ReleaseMode)
				}

				ctx, cancel := signalContext(cmd)
				defer cancel()

				var gatherer prometheus.Gatherer
				if s.cfg.Server.Metrics {
					gatherer = s.registry
				}

				errCh := make(chan error, 1)
				if watch {
					files := s.cfg.Watch.Files
					if len(files) == 0 {
						return fmt.Errorf("--watch needs watch.files in the workspace config")
					}
					go func() {
						errCh <- watchFiles(ctx, s, files, time.Duration(s.cfg.Watch.DebounceMS)*time.Millisecond, cmd.ErrOrStderr())
					}()
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
				err := server.Run(ctx, s.ws, server.Config{
					Addr:     addr,
					Version:  Version,
					Logger:   s.logger,
					Gatherer: gatherer,
					Metrics:  s.metrics,
				})
				cancel()
				if watch {
					if werr := <-errCh; werr != nil && err == nil {
						err = werr
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the graph when watch.files change")

	return cmd
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
