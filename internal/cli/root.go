// Package cli implements the shopctl administration commands.
package cli

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/user"
)

// RootOptions holds global flags shared by every command.
type RootOptions struct {
	DSN       string
	JWTSecret string
	Verbose   bool

	cfg config.Config

	// openUsers is swapped in tests to avoid a database.
	openUsers func(ctx context.Context, dsn string) (user.Repository, func(), error)
}

func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &RootOptions{cfg: cfg, openUsers: openPostgresUsers}
	return newRootCommand(opts)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "shopctl",
		Short:         "Administration tool for the shop service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", opts.cfg.DatabaseDSN, "postgres connection string")
	cmd.PersistentFlags().StringVar(&opts.JWTSecret, "jwt-secret", opts.cfg.JWTSecret, "secret used to sign tokens")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateAdminCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func (o *RootOptions) logger(cmd *cobra.Command) *logrus.Entry {
	level := "info"
	if o.Verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Service: "shopctl",
		Env:     "dev",
		Level:   level,
		Output:  cmd.ErrOrStderr(),
	})
}

func openPostgresUsers(ctx context.Context, dsn string) (user.Repository, func(), error) {
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return user.NewPostgresRepository(pool), pool.Close, nil
}
