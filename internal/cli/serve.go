package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/planfiles/fingerd/internal/config"
	"github.com/planfiles/fingerd/internal/server"
)

// NewServeCmd creates the serve subcommand, which runs the daemon until
// interrupted.
func NewServeCmd() *cobra.Command {
	var (
		host        string
		port        int
		planDir     string
		cacheTTL    string
		readTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the finger daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromContext(cmd.Context())
			logger := loggerFromContext(cmd.Context())

			// CLI flags override config file and environment.
			if cmd.Flags().Changed("host") {
				cfg.Listen.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Listen.Port = port
			}
			if planDir != "" {
				cfg.PlanDir = planDir
			}
			if cacheTTL != "" {
				ttl, err := config.ParseTTL(cacheTTL)
				if err != nil {
					return err
				}
				cfg.Cache.TTL = config.Duration(ttl)
			}
			if cmd.Flags().Changed("read-timeout") {
				cfg.Server.ReadTimeout = config.Duration(readTimeout)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "host to bind")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "port to listen on")
	cmd.Flags().StringVar(&planDir, "plan-dir", "", "directory of year/project plan files")
	cmd.Flags().StringVar(&cacheTTL, "cache-ttl", "", `content cache TTL, seconds or duration ("300", "5m"; 0 disables)`)
	cmd.Flags().DurationVar(&readTimeout, "read-timeout", config.DefaultReadTimeout, "per-connection read deadline (0 disables)")

	return cmd
}
