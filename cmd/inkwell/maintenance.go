package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"inkwell/internal/blog"
	"inkwell/internal/database"
)

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := c.readConfig()
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}

func (c *cli) promoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant admin rights to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.readConfig()
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			err = blog.NewService(db, cfg.PostsPerPage).Promote(cmd.Context(), args[0])
			if errors.Is(err, blog.ErrNotFound) {
				return fmt.Errorf("no account named %q", args[0])
			}
			if err != nil {
				return err
			}
			slog.Info("account promoted to admin", "username", args[0])
			return nil
		},
	}
}
