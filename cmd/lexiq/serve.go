package main

import (
	"time"

	"github.com/spf13/cobra"

	"lexiq-backend/internal/bootstrap"
	"lexiq-backend/internal/shared/config"
)

func newServeCmd() *cobra.Command {
	var (
		port            string
		shutdownTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			app, err := bootstrap.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return bootstrap.Serve(cmd.Context(), app, shutdownTimeout)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (defaults to PORT)")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "time allowed for in-flight requests on shutdown")
	return cmd
}
