package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/domain"
)

var errShowMemory = errors.New("account show requires the postgres driver: memory accounts live only as long as one command")

func newAccountCommand(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage ledger accounts",
	}

	cmd.AddCommand(newAccountCreateCommand(configDir))
	cmd.AddCommand(newAccountShowCommand(configDir))

	return cmd
}

func newAccountCreateCommand(configDir *string) *cobra.Command {
	var owner, accountType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision an account with zero balance",
		Long: `Provision an account with zero balance and print it.

With DB_DRIVER=memory the account exists only until the command exits,
so it cannot be read back by a later command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configDir)
			if err != nil {
				return err
			}
			defer e.close()

			services, err := httpserver.NewServices(e.db, e.config)
			if err != nil {
				return err
			}

			ctx := e.logger.WithContext(cmd.Context())

			account, err := services.Accounts.Create(ctx, owner, domain.AccountType(accountType))
			if err != nil {
				return fmt.Errorf("creating account: %w", err)
			}

			return printJSON(cmd.OutOrStdout(), account)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&accountType, "type", string(domain.AccountTypeSavings), "account type, SAVINGS or CHECKING")

	return cmd
}

func newAccountShowCommand(configDir *string) *cobra.Command {
	var (
		id           int64
		transactions bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print an account and optionally its transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configDir)
			if err != nil {
				return err
			}
			defer e.close()

			if e.db == nil {
				return errShowMemory
			}

			services, err := httpserver.NewServices(e.db, e.config)
			if err != nil {
				return err
			}

			ctx := e.logger.WithContext(cmd.Context())

			account, err := services.Queries.GetAccount(ctx, id)
			if err != nil {
				return fmt.Errorf("getting account %d: %w", id, err)
			}

			if !transactions {
				return printJSON(cmd.OutOrStdout(), account)
			}

			items, err := services.Queries.ListTransactions(ctx, id)
			if err != nil {
				return fmt.Errorf("listing transactions of account %d: %w", id, err)
			}

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"account":      account,
				"transactions": items,
			})
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "account id (required)")
	_ = cmd.MarkFlagRequired("id")
	cmd.Flags().BoolVar(&transactions, "transactions", false, "include the account transactions, newest first")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
