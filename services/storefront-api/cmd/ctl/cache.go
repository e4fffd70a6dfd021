package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storefront-backend/shared/pkg/cache"
)

func revalidateCmd(e *env) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "revalidate",
		Short: "Drop cached pages so the next request renders fresh data",
		Example: `  storefront-ctl revalidate --path /api/v1/categories
  storefront-ctl revalidate --path '/api/v1/products/*'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path = strings.TrimSpace(path)
			if path == "" {
				return fmt.Errorf("--path is required")
			}
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			rdb := cache.New(e.cfg.Redis.Addr, e.cfg.Redis.Password, e.cfg.Redis.DB)
			defer func() { _ = rdb.Close() }()

			var (
				n   int64
				err error
			)
			if prefix, ok := strings.CutSuffix(path, "*"); ok {
				n, err = rdb.DeletePrefix(cmd.Context(), cache.PageKey(prefix))
			} else {
				n, err = rdb.Delete(cmd.Context(), cache.PageKey(path))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached page(s) for %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "request path to revalidate, a trailing * matches a prefix")
	return cmd
}
