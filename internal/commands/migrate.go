package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

var errMigrateMemory = errors.New("migrations require the postgres driver")

func newMigrateCommand(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configDir)
			if err != nil {
				return err
			}
			defer e.close()

			if e.db == nil {
				return errMigrateMemory
			}

			if err := dbpkg.Migrate(e.db, e.config.MigrationURL); err != nil {
				return err
			}

			e.logger.Info().Msg("db migrated successfully")

			return nil
		},
	}
}
