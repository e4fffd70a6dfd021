package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"storefront-backend/shared/pkg/config"
	"storefront-backend/shared/pkg/logger"
)

var Version = "dev"

// env is what every subcommand needs: config, a logger and a lazily opened pool.
type env struct {
	cfg  config.Config
	log  zerolog.Logger
	pool *pgxpool.Pool
}

func (e *env) db(ctx context.Context) (*pgxpool.Pool, error) {
	if e.pool != nil {
		return e.pool, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, e.cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	e.pool = pool
	return pool, nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

func main() {
	e := &env{}
	rootCmd := &cobra.Command{
		Use:           "storefront-ctl",
		Short:         "Operational commands for the storefront backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logger.New("storefront-ctl", cfg.Common.LogLevel)
			return nil
		},
	}

	rootCmd.AddCommand(migrateCmd(e))
	rootCmd.AddCommand(resetTestUserCmd(e))
	rootCmd.AddCommand(revalidateCmd(e))

	err := rootCmd.Execute()
	e.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
