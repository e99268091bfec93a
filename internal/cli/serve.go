package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bloomcart/bloomcart/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the chat, inquiry and admin HTTP API.

Examples:
  bloomcart serve
  bloomcart serve --addr :9090
  PORT=3000 bloomcart serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if addr == "" {
				addr = rt.cfg.Server.Addr
			}
			rt.log.Info().Str("db", rt.db.Path()).Str("provider", rt.cfg.Model.Provider).Msg("starting")
			if !rt.model.Configured() {
				rt.log.Warn().Str("provider", rt.cfg.Model.Provider).
					Msg("model API key not set; chat turns will fail until it is configured")
			}

			srv := server.New(server.Deps{
				Assistant:     rt.assistant,
				Builder:       rt.builder,
				Conversations: rt.convs,
				Inquiries:     rt.inquiries,
				Sender:        rt.notify,
				DB:            rt.db,
				Metrics:       rt.metrics,
				Gatherer:      rt.registry,
				Logger:        rt.log,
				ReplayLimit:   rt.cfg.Chat.ReplayLimit,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
