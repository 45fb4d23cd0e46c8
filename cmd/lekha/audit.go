package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/cli"
	"github.com/lekha-app/lekha/internal/model"
)

func auditCmd() *cobra.Command {
	var (
		bookRef string
		txnID   string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail",
		Long: `Show the audit history for a book or a single transaction. Entries
survive the deletion of the records they describe.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if bookRef == "" && txnID == "" {
				return fmt.Errorf("either --book or --tx is required")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var logs []model.AuditLog
			if txnID != "" {
				logs, err = store.GetAuditLogsByTransaction(ctx, txnID)
			} else {
				book, bookErr := resolveBook(ctx, store, bookRef)
				if bookErr != nil {
					return bookErr
				}
				logs, err = store.GetAuditLogsByBook(ctx, book.ID)
			}
			if err != nil {
				return fmt.Errorf("failed to load audit logs: %w", err)
			}

			if len(logs) == 0 {
				fmt.Println(cli.InfoStyle.Render("No audit entries found."))
				return nil
			}

			for _, log := range logs {
				header := fmt.Sprintf("%s  %s %s by %s",
					log.Timestamp.Format(time.RFC3339), log.Action, log.TransactionID, log.PerformedBy)
				switch log.Action {
				case model.ActionDelete:
					fmt.Println(cli.ErrorStyle.Render(header))
				case model.ActionCreate:
					fmt.Println(cli.SuccessStyle.Render(header))
				case model.ActionUpdate:
					fmt.Println(cli.InfoStyle.Render(header))
				}

				if verbose {
					for _, change := range log.Changes {
						fmt.Printf("    %s: %s → %s\n",
							change.Field, formatChangeValue(change.OldValue), formatChangeValue(change.NewValue))
					}
				} else if len(log.Changes) > 0 && log.Action == model.ActionUpdate {
					fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("    %d field(s) changed", len(log.Changes))))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bookRef, "book", "", "book ID or name")
	cmd.Flags().StringVar(&txnID, "tx", "", "transaction ID")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show field-level changes")
	return cmd
}

func formatChangeValue(v any) string {
	if v == nil {
		return "∅"
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
