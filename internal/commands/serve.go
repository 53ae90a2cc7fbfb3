package commands

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

func newServeCommand(configDir *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configDir)
			if err != nil {
				return err
			}
			defer e.close()

			if migrate && e.db != nil {
				if err := dbpkg.Migrate(e.db, e.config.MigrationURL); err != nil {
					return err
				}

				e.logger.Info().Msg("db migrated successfully")
			}

			gin.SetMode(gin.ReleaseMode)

			server, err := httpserver.New(e.db, e.logger, e.config)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			e.logger.Info().Str("address", e.config.ServerAddress).Str("driver", e.config.DBDriver).
				Msg("LEDGER API SERVER HAS STARTED")

			return server.Engine.Run(e.config.ServerAddress)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}
