package main

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	dbembed "github.com/bbdeals/wacrm/db"
	"github.com/bbdeals/wacrm/internal/db"
	"github.com/bbdeals/wacrm/internal/logger"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <" + strings.Join(db.MigrateCommands, "|") + "> [version]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: db.MigrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			migrations, err := fs.Sub(dbembed.MigrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("migrations fs: %w", err)
			}
			return db.RunMigrate(logger.L, cfg.Postgres, migrations, args[0], args[1:])
		},
	}
}
