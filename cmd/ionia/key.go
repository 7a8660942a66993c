package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalkafox/ionia-img/internal/app"
	"github.com/kalkafox/ionia-img/internal/domain"
	"github.com/kalkafox/ionia-img/internal/shortid"
)

const (
	adminTimeout     = 30 * time.Second
	generatedKeySize = 32
)

var errKeyNotFound = errors.New("key not found")

func newKeyCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage upload API keys",
	}
	cmd.AddCommand(newKeyAddCmd(verbose), newKeyCheckCmd(verbose))
	return cmd
}

func newKeyAddCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "add [key]",
		Short: "Add an API key; a random one is generated and printed when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			if key == "" {
				k, err := shortid.New(generatedKeySize)
				if err != nil {
					return err
				}
				key = k
			}
			return withRepo(cmd.Context(), *verbose, func(ctx context.Context, repo domain.Repo) error {
				if err := repo.AddKey(ctx, key); err != nil {
					return fmt.Errorf("add key: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), key)
				return nil
			})
		},
	}
}

func newKeyCheckCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "check <key>",
		Short: "Exit non-zero unless the key is in the key set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), *verbose, func(ctx context.Context, repo domain.Repo) error {
				ok, err := repo.HasKey(ctx, args[0])
				if err != nil {
					return fmt.Errorf("check key: %w", err)
				}
				if !ok {
					return errKeyNotFound
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}

// withRepo открывает только хранилище метаданных и закрывает его после fn
func withRepo(ctx context.Context, verbose bool, fn func(context.Context, domain.Repo) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed load config: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, adminTimeout)
	defer cancel()

	stores, err := app.OpenRepo(ctx, cfg, adminLogger(verbose))
	if err != nil {
		return err
	}
	defer stores.Close()
	return fn(ctx, stores.Repo)
}
