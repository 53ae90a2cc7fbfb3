// Package commands provides the command line interface of the ledger.
package commands

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Account balances with an append-only transaction log",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./configs", "directory holding app.env")

	rootCmd.AddCommand(newServeCommand(&configDir))
	rootCmd.AddCommand(newMigrateCommand(&configDir))
	rootCmd.AddCommand(newAccountCommand(&configDir))

	return rootCmd
}

// env is what every subcommand needs to run.
type env struct {
	config configpkg.Config
	logger zerolog.Logger
	db     *sql.DB // nil for the memory driver
}

func (e env) close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Error().Err(err).Msg("cannot close database")
		}
	}
}

func setup(configDir string) (env, error) {
	config, err := configpkg.Load(configDir)
	if err != nil {
		return env{}, fmt.Errorf("loading config: %w", err)
	}

	e := env{
		config: config,
		logger: middleware.CreateLogger(config),
	}

	if config.DBDriver == configpkg.DriverMemory {
		return e, nil
	}

	e.db, err = dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		return env{}, fmt.Errorf("connecting to database: %w", err)
	}

	return e, nil
}
