package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/cli"
	"github.com/lekha-app/lekha/internal/form"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/service"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
		Long:  `Add, list, edit, and delete transactions. Every mutation is recorded in the audit trail.`,
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(listTxCmd())
	cmd.AddCommand(showTxCmd())
	cmd.AddCommand(updateTxCmd())
	cmd.AddCommand(deleteTxCmd())

	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		setPairs []string
		txnType  string
		category string
		party    string
		mode     string
		user     string
	)

	cmd := &cobra.Command{
		Use:   "add <book>",
		Short: "Add a transaction to a book",
		Long: `Add a transaction, supplying schema fields as repeated --set key=value
flags. Values are validated against the book's field configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			book, err := resolveBook(ctx, store, args[0])
			if err != nil {
				return err
			}

			input, err := parseSetFlags(setPairs)
			if err != nil {
				return err
			}

			values, fieldErrs := form.Validate(book.FieldConfig, input)
			if len(fieldErrs) > 0 {
				for _, fe := range fieldErrs {
					fmt.Println(cli.FormatError(fe.Error()))
				}
				return fmt.Errorf("%d field(s) failed validation", len(fieldErrs))
			}

			if txnType != "" {
				values["type"] = model.Text(txnType)
			}
			if category != "" {
				values["category"] = model.Text(category)
			}
			if party != "" {
				values["party"] = model.Text(party)
			}

			txn, err := form.BuildTransaction(book, values, user)
			if err != nil {
				return err
			}
			if mode != "" {
				txn.PaymentMode = mode
			}

			if err := store.CreateTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s of %.2f on %s (%s)",
				txn.Type, txn.Amount, txn.DateString(), txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&setPairs, "set", nil, "field value as key=value (repeatable)")
	cmd.Flags().StringVar(&txnType, "type", "", "transaction type (income, expense, transfer)")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&party, "party", "", "counterparty")
	cmd.Flags().StringVar(&mode, "mode", "", "payment mode")
	cmd.Flags().StringVar(&user, "user", "", "acting user recorded in the audit trail")
	return cmd
}

func listTxCmd() *cobra.Command {
	var (
		from  string
		to    string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list <book>",
		Short: "List a book's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			book, err := resolveBook(ctx, store, args[0])
			if err != nil {
				return err
			}

			filter := service.TransactionFilter{Limit: limit}
			if from != "" {
				d, parseErr := time.Parse(model.DateLayout, from)
				if parseErr != nil {
					return fmt.Errorf("invalid --from date %q: %w", from, parseErr)
				}
				filter.StartDate = &d
			}
			if to != "" {
				d, parseErr := time.Parse(model.DateLayout, to)
				if parseErr != nil {
					return fmt.Errorf("invalid --to date %q: %w", to, parseErr)
				}
				filter.EndDate = &d
			}

			txns, err := store.GetTransactionsByBookFiltered(ctx, book.ID, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(txns) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Date"),
				cli.BoldStyle.Render("Type"),
				cli.BoldStyle.Render("Amount"),
				cli.BoldStyle.Render("Category"),
				cli.BoldStyle.Render("Description"),
				cli.BoldStyle.Render("ID"))
			for _, txn := range txns {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					txn.DateString(), txn.Type, formatAmount(txn.Amount, book.Currency),
					txn.CategoryID, txn.Description, txn.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to show")
	return cmd
}

func showTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransaction(ctx, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "ID:\t%s\n", txn.ID)
			fmt.Fprintf(w, "Book:\t%s\n", txn.BookID)
			fmt.Fprintf(w, "Type:\t%s\n", txn.Type)
			fmt.Fprintf(w, "Amount:\t%.2f\n", txn.Amount)
			fmt.Fprintf(w, "Date:\t%s\n", txn.DateString())
			fmt.Fprintf(w, "Description:\t%s\n", txn.Description)
			fmt.Fprintf(w, "Category:\t%s\n", txn.CategoryID)
			if txn.PartyID != "" {
				fmt.Fprintf(w, "Party:\t%s\n", txn.PartyID)
			}
			if txn.PaymentMode != "" {
				fmt.Fprintf(w, "Mode:\t%s\n", txn.PaymentMode)
			}
			fmt.Fprintf(w, "Recorded:\t%s\n", txn.RecordedAt.Format(time.RFC3339))
			for key, val := range txn.CustomData {
				fmt.Fprintf(w, "%s:\t%s\n", key, val.String())
			}
			return nil
		},
	}
}

func updateTxCmd() *cobra.Command {
	var (
		setPairs    []string
		txnType     string
		amount      string
		date        string
		description string
		category    string
		party       string
		mode        string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction",
		Long: `Update attributes of an existing transaction. Only the provided flags
change; every changed field is diffed into the audit trail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransaction(ctx, args[0])
			if err != nil {
				return err
			}
			book, err := store.GetBook(ctx, txn.BookID)
			if err != nil {
				return err
			}

			if txnType != "" {
				txn.Type = model.TransactionType(txnType)
			}
			if amount != "" {
				n, parseErr := strconv.ParseFloat(amount, 64)
				if parseErr != nil {
					return fmt.Errorf("invalid --amount %q: %w", amount, parseErr)
				}
				txn.Amount = n
			}
			if date != "" {
				d, parseErr := time.Parse(model.DateLayout, date)
				if parseErr != nil {
					return fmt.Errorf("invalid --date %q: %w", date, parseErr)
				}
				txn.TxnDate = d
			}
			if description != "" {
				txn.Description = description
			}
			if category != "" {
				txn.CategoryID = category
			}
			if party != "" {
				txn.PartyID = party
			}
			if mode != "" {
				txn.PaymentMode = mode
			}

			input, err := parseSetFlags(setPairs)
			if err != nil {
				return err
			}
			for key, raw := range input {
				field := book.FieldByKey(key)
				if field == nil {
					return fmt.Errorf("field %q not found in book %q", key, book.Name)
				}
				val, coerceErr := form.CoerceValue(*field, raw)
				if coerceErr != nil {
					return fmt.Errorf("%s: %w", field.Label, coerceErr)
				}
				if txn.CustomData == nil {
					txn.CustomData = make(map[string]model.Value)
				}
				txn.CustomData[key] = val
			}

			if err := store.UpdateTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Updated " + txn.ID))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&setPairs, "set", nil, "custom field value as key=value (repeatable)")
	cmd.Flags().StringVar(&txnType, "type", "", "transaction type")
	cmd.Flags().StringVar(&amount, "amount", "", "amount")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&party, "party", "", "counterparty")
	cmd.Flags().StringVar(&mode, "mode", "", "payment mode")
	return cmd
}

func deleteTxCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransaction(ctx, args[0])
			if err != nil {
				return err
			}

			if !yes {
				question := fmt.Sprintf("Delete %s of %.2f from %s?", txn.Type, txn.Amount, txn.DateString())
				confirmed, promptErr := cli.NewPrompter(nil, nil).Confirm(question, false)
				if promptErr != nil {
					return promptErr
				}
				if !confirmed {
					fmt.Println(cli.FormatInfo("Aborted."))
					return nil
				}
			}

			if err := store.DeleteTransaction(ctx, txn.ID); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Deleted " + txn.ID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip confirmation prompt")
	return cmd
}

func formatAmount(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}
