// cli/serve.go
package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-notes/http"
	"github.com/ViniZap4/lumi-notes/logging"
	"github.com/ViniZap4/lumi-notes/repo"
)

func newServeCmd(o *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development notes API",
		Long: `Run a notes API for local development and testing.

Data is kept in memory unless server.driver is "postgres", in which case
server.database_url is migrated on start.

Examples:
  lumi serve --addr 127.0.0.1:8080
  LUMI_SERVER_DRIVER=postgres LUMI_SERVER_DATABASE_URL=postgres://localhost/lumi lumi serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r, err := repo.Open(ctx, cfg.Server.Driver, cfg.Server.DatabaseURL)
			if err != nil {
				return err
			}
			defer r.Close()

			srv := http.NewServer(r, http.Config{
				AccessTTL:  cfg.Server.AccessTTL,
				RefreshTTL: cfg.Server.RefreshTTL,
			}, log)

			errc := make(chan error, 1)
			go func() { errc <- srv.Listen(addr) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				log.Info().Msg("shutting down")
				return srv.Shutdown()
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
