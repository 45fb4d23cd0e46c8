package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/cli"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/report"
	"github.com/lekha-app/lekha/internal/service"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a book's transactions",
		Long:  `Cash flow, category, monthly, party, and custom-field reports over a book.`,
	}

	cmd.AddCommand(cashflowReportCmd())
	cmd.AddCommand(categoriesReportCmd())
	cmd.AddCommand(monthlyReportCmd())
	cmd.AddCommand(partiesReportCmd())
	cmd.AddCommand(groupReportCmd())

	return cmd
}

// loadReportTransactions resolves the book and fetches its transactions for
// the optional date window.
func loadReportTransactions(ctx context.Context, bookRef, from, to string) (*model.Book, []model.Transaction, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { _ = store.Close() }

	book, err := resolveBook(ctx, store, bookRef)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}

	var filter service.TransactionFilter
	if from != "" {
		d, parseErr := time.Parse(model.DateLayout, from)
		if parseErr != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("invalid --from date %q: %w", from, parseErr)
		}
		filter.StartDate = &d
	}
	if to != "" {
		d, parseErr := time.Parse(model.DateLayout, to)
		if parseErr != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("invalid --to date %q: %w", to, parseErr)
		}
		filter.EndDate = &d
	}

	txns, err := store.GetTransactionsByBookFiltered(ctx, book.ID, filter)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return book, txns, closeFn, nil
}

func addReportRangeFlags(cmd *cobra.Command, from, to *string) {
	cmd.Flags().StringVar(from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(to, "to", "", "end date (YYYY-MM-DD)")
}

func cashflowReportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "cashflow <book>",
		Short: "Totals of money in, money out, and net",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, txns, closeFn, err := loadReportTransactions(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}
			defer closeFn()

			flow := report.ComputeCashFlow(txns)

			var sb strings.Builder
			fmt.Fprintf(&sb, "Money in:     %s\n", formatAmount(flow.TotalIn, book.Currency))
			fmt.Fprintf(&sb, "Money out:    %s\n", formatAmount(flow.TotalOut, book.Currency))
			fmt.Fprintf(&sb, "Net:          %s\n", formatAmount(flow.Net, book.Currency))
			fmt.Fprintf(&sb, "Transactions: %d", flow.Transactions)
			fmt.Println(cli.RenderBox(cli.ChartIcon+" Cash flow: "+book.Name, sb.String()))
			return nil
		},
	}

	addReportRangeFlags(cmd, &from, &to)
	return cmd
}

func categoriesReportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "categories <book>",
		Short: "Expense breakdown by category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, txns, closeFn, err := loadReportTransactions(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}
			defer closeFn()

			rows := report.ComputeCategoryBreakdown(txns)
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("No expenses found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Category"),
				cli.BoldStyle.Render("Amount"),
				cli.BoldStyle.Render("Share"),
				cli.BoldStyle.Render("Count"))
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%d\n",
					row.Category, formatAmount(row.Amount, book.Currency), row.Percentage, row.Count)
			}
			return nil
		},
	}

	addReportRangeFlags(cmd, &from, &to)
	return cmd
}

func monthlyReportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "monthly <book>",
		Short: "Income and expense trends by month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, txns, closeFn, err := loadReportTransactions(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}
			defer closeFn()

			trends := report.ComputeMonthlyTrends(txns)
			if len(trends.Months) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Month"),
				cli.BoldStyle.Render("Income"),
				cli.BoldStyle.Render("Expense"),
				cli.BoldStyle.Render(""))
			for _, month := range trends.Months {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					month.Month,
					formatAmount(month.Income, book.Currency),
					formatAmount(month.Expense, book.Currency),
					trendBar(month.Income, month.Expense, trends.Max))
			}
			return nil
		},
	}

	addReportRangeFlags(cmd, &from, &to)
	return cmd
}

// trendBar renders income and expense as proportional bars scaled to the
// largest monthly value.
func trendBar(income, expense, maxValue float64) string {
	if maxValue <= 0 {
		return ""
	}
	const width = 20
	in := int(income / maxValue * width)
	out := int(expense / maxValue * width)
	return cli.SuccessStyle.Render(strings.Repeat("█", in)) +
		cli.ErrorStyle.Render(strings.Repeat("█", out))
}

func partiesReportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "parties <book>",
		Short: "Paid and received totals per counterparty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, txns, closeFn, err := loadReportTransactions(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}
			defer closeFn()

			rows := report.ComputePartyLedger(txns)
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions with a counterparty found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Party"),
				cli.BoldStyle.Render("Paid"),
				cli.BoldStyle.Render("Received"),
				cli.BoldStyle.Render("Net"),
				cli.BoldStyle.Render("Count"))
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					row.Party,
					formatAmount(row.Paid, book.Currency),
					formatAmount(row.Received, book.Currency),
					formatAmount(row.Net, book.Currency),
					row.Count)
			}
			return nil
		},
	}

	addReportRangeFlags(cmd, &from, &to)
	return cmd
}

func groupReportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "group <book> <field>",
		Short: "Raw amount totals grouped by any schema field",
		Long: `Group transactions by a custom or built-in field and total their raw
amounts. Income and expense amounts are summed together without sign, so
this report shows activity volume per bucket rather than net position.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, txns, closeFn, err := loadReportTransactions(cmd.Context(), args[0], from, to)
			if err != nil {
				return err
			}
			defer closeFn()

			rows := report.ComputeCustomGroups(txns, args[1])
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.BoldStyle.Render(args[1]),
				cli.BoldStyle.Render("Amount"),
				cli.BoldStyle.Render("Count"))
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\n",
					row.Group, formatAmount(row.Amount, book.Currency), row.Count)
			}
			return nil
		},
	}

	addReportRangeFlags(cmd, &from, &to)
	return cmd
}
