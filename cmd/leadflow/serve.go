package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thesyncim/leadflow/cmd/leadflow/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr       string
		transition time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reference application",
		Long: `Serve the reference funding application rendered from the step schema.
Submissions go to the configured webhook URLs; point a browser at the printed
address to fill the form by hand.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.serverConfig()
			cfg.Addr = addr
			cfg.TransitionDelay = transition

			srv, err := server.NewServer(cfg, server.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if _, err := srv.Start(); err != nil {
				return err
			}
			fmt.Printf("Reference app ready on %s\n", srv.URL())

			<-cmd.Context().Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().DurationVar(&transition, "transition", server.DefaultConfig().TransitionDelay, "Step transition animation length")
	return cmd
}

// serverConfig maps harness settings onto the reference app.
func (a *app) serverConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Password = a.cfg.Password
	cfg.FormWebhookURL = a.cfg.FormWebhookURL
	cfg.FileWebhookURL = a.cfg.FileWebhookURL
	return cfg
}

// startTarget returns the URL to test against, starting the reference app
// when no base URL is configured. The returned stop function is never nil.
func (a *app) startTarget() (string, func(), error) {
	if a.cfg.BaseURL != "" {
		return a.cfg.BaseURL, func() {}, nil
	}
	srv, err := server.NewServer(a.serverConfig(), server.WithLogger(a.logger.WithPrefix("app")))
	if err != nil {
		return "", nil, err
	}
	if _, err := srv.Start(); err != nil {
		return "", nil, err
	}
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return srv.URL(), stop, nil
}
