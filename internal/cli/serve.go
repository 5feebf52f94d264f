package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/haven/internal/server"
	"github.com/matzehuels/haven/pkg/observability"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		flags resolveFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolve and fetch API over HTTP",
		Long: `Serve starts an HTTP server exposing:

  GET /resolve?declaration=g:a:v[&skipInner=true][&format=json|dot|svg]
  GET /fetch?declaration=g:a:v[&skipInner=true]
  GET /healthz
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, &flags)
			if err != nil {
				return err
			}
			defer runner.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			observability.SetAll(observability.NewMetrics(reg))
			defer observability.Reset()

			srv := server.New(server.Config{
				Runner:   runner,
				Gatherer: reg,
				Logger:   loggerFromContext(ctx),
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the outcome cache")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-request fetch timeout (default from config)")
	return cmd
}
