package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/cli"
	"github.com/lekha-app/lekha/internal/model"
)

func booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage ledger books",
		Long:  `List, create, inspect, and delete books. Each book carries its own transaction schema.`,
	}

	cmd.AddCommand(listBooksCmd())
	cmd.AddCommand(addBookCmd())
	cmd.AddCommand(showBookCmd())
	cmd.AddCommand(deleteBookCmd())

	return cmd
}

func listBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all books",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			books, err := store.ListBooks(ctx)
			if err != nil {
				return fmt.Errorf("failed to list books: %w", err)
			}

			if len(books) == 0 {
				fmt.Println(cli.InfoStyle.Render("No books found. Use 'lekha books add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Currency"),
				cli.BoldStyle.Render("Fields"),
				cli.BoldStyle.Render("Created"))
			for _, book := range books {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					book.ID, book.Name, book.Currency, len(book.FieldConfig),
					book.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func addBookCmd() *cobra.Command {
	var (
		currency   string
		templateID string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new book",
		Long:  `Create a book with the core schema, or seed its fields from a template.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			book := &model.Book{
				ID:        model.NewBookID(),
				Name:      args[0],
				Currency:  currency,
				CreatedAt: time.Now(),
			}

			if templateID != "" {
				tpl, tplErr := store.GetTemplate(ctx, templateID)
				if tplErr != nil {
					return tplErr
				}
				book.FieldConfig = tpl.FieldConfig
				book.Preferences = tpl.Preferences
			} else {
				book.FieldConfig = []model.FieldConfig{
					{Key: "amount", Label: "Amount", Type: model.FieldNumber, Order: 1, Visible: true, Required: true},
					{Key: "date", Label: "Date", Type: model.FieldDate, Order: 2, Visible: true, Required: true},
					{Key: "description", Label: "Description", Type: model.FieldText, Order: 3, Visible: true, Multiline: true},
				}
			}

			if err := store.CreateBook(ctx, book); err != nil {
				return fmt.Errorf("failed to create book: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created book %q (%s)", book.Name, book.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "USD", "book currency code")
	cmd.Flags().StringVar(&templateID, "template", "", "seed fields from a template ID")
	return cmd
}

func showBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <book>",
		Short: "Show a book and its schema",
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

			var sb strings.Builder
			fmt.Fprintf(&sb, "ID:       %s\n", book.ID)
			fmt.Fprintf(&sb, "Currency: %s\n", book.Currency)
			fmt.Fprintf(&sb, "Created:  %s\n", book.CreatedAt.Format("2006-01-02"))
			if book.PrimaryAmountField != "" {
				fmt.Fprintf(&sb, "Primary amount field: %s\n", book.PrimaryAmountField)
			}
			sb.WriteString("\nFields:\n")
			for _, field := range book.FieldConfig {
				marker := " "
				if field.Required {
					marker = "*"
				}
				fmt.Fprintf(&sb, "  %2d. %s%s (%s, key=%s)\n", field.Order, field.Label, marker, field.Type, field.Key)
			}

			fmt.Println(cli.RenderBox(cli.BookIcon+" "+book.Name, strings.TrimRight(sb.String(), "\n")))
			return nil
		},
	}
}

func deleteBookCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <book>",
		Short: "Delete a book",
		Long: `Delete a book record. Transactions and audit history referencing the
book are kept; they become unreachable through normal listing but remain
in the database and in backups.`,
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

			if !yes {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("This deletes book %q. Its transactions are not removed.", book.Name)))
				confirmed, promptErr := cli.NewPrompter(nil, nil).Confirm("Delete anyway?", false)
				if promptErr != nil {
					return promptErr
				}
				if !confirmed {
					fmt.Println(cli.FormatInfo("Aborted."))
					return nil
				}
			}

			if err := store.DeleteBook(ctx, book.ID); err != nil {
				return fmt.Errorf("failed to delete book: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted book %q", book.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip confirmation prompt")
	return cmd
}
