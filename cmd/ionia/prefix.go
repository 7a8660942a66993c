package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalkafox/ionia-img/internal/domain"
)

func newPrefixCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefix",
		Short: "Manage the URL prefix returned by uploads",
	}
	cmd.AddCommand(newPrefixSetCmd(verbose), newPrefixShowCmd(verbose))
	return cmd
}

func newPrefixSetCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set <url>",
		Short: "Store the URL prefix in the site configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := normalizePrefix(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), *verbose, func(ctx context.Context, repo domain.Repo) error {
				if err := repo.SetURLPrefix(ctx, prefix); err != nil {
					return fmt.Errorf("set prefix: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), prefix)
				return nil
			})
		},
	}
}

func newPrefixShowCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored URL prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), *verbose, func(ctx context.Context, repo domain.Repo) error {
				cfg, found, err := repo.SiteConfig(ctx)
				if err != nil {
					return fmt.Errorf("read prefix: %w", err)
				}
				if !found {
					fmt.Fprintln(cmd.OutOrStdout(), "(not set, DEFAULT_URL_PREFIX is used)")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), cfg.URLPrefix)
				return nil
			})
		},
	}
}

// normalizePrefix принимает только абсолютные http(s) URL без query и fragment
func normalizePrefix(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid prefix: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid prefix %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid prefix %q: host is empty", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid prefix %q: query and fragment are not allowed", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
