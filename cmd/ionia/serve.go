package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalkafox/ionia-img/internal/app"
)

func newServeCmd() *cobra.Command {
	var seedKey string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			base := baseLogger()
			a, err := app.Build(ctx, cfg, base)
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}
			if seedKey != "" {
				if err := a.Stores().Repo.AddKey(ctx, seedKey); err != nil {
					return fmt.Errorf("seed key: %w", err)
				}
				base.Println("seed api key added")
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&seedKey, "seed-key", "", "add this API key before serving (handy with DATABASE_URL=memory://)")
	return cmd
}
