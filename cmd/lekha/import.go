package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/cli"
	"github.com/lekha-app/lekha/internal/importer"
	"github.com/lekha-app/lekha/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from files",
		Long:  `Import transactions from CSV or OFX/QFX files, into an existing book or a brand new one.`,
	}

	cmd.AddCommand(importCSVCmd())
	cmd.AddCommand(importBookCmd())
	cmd.AddCommand(importOFXCmd())

	return cmd
}

func importCSVCmd() *cobra.Command {
	var (
		mapPairs []string
		user     string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "csv <book> <file>",
		Short: "Import a CSV file into an existing book",
		Long: `Import a CSV file into an existing book. Column mappings are guessed
from the headers; use repeated --map header=target flags to override.
Valid targets: date, time, amount_in, amount_out, amount_net, description,
category, mode, party, ignore, create_new, or an existing field key.

Rows whose date cannot be parsed are skipped and reported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			interrupts := cli.NewInterruptHandler(os.Stderr)
			ctx := interrupts.HandleInterrupts(cmd.Context())

			content, err := os.ReadFile(args[1]) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to read CSV file: %w", err)
			}
			rows := importer.ParseCSV(string(content))

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			book, err := resolveBook(ctx, store, args[0])
			if err != nil {
				return err
			}

			var firstRow []string
			if len(rows) > 1 {
				firstRow = rows[1]
			}
			var headers []string
			if len(rows) > 0 {
				headers = rows[0]
			}
			mappings := importer.GuessMappings(headers, firstRow, book.FieldConfig)

			overrides, err := parseSetFlags(mapPairs)
			if err != nil {
				return err
			}
			for i := range mappings {
				if target, ok := overrides[mappings[i].Header]; ok {
					mappings[i].Target = target
					if target == importer.TargetNewField {
						mappings[i].NewFieldLabel = mappings[i].Header
					}
				}
			}

			if dryRun {
				printMappings(mappings)
				return nil
			}

			bar := progressbar.Default(int64(len(rows)-1), "importing")
			imp := importer.BookImporter{Store: store, PerformedBy: user}
			result, err := imp.Run(ctx, book, rows, mappings, func(processed, _ int) {
				_ = bar.Set(processed)
			})
			if err != nil {
				if interrupts.WasInterrupted() {
					return nil
				}
				return err
			}
			_ = bar.Finish()

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transaction(s), skipped %d row(s)",
				result.Created, result.Skipped)))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&mapPairs, "map", nil, "column mapping override as header=target (repeatable)")
	cmd.Flags().StringVar(&user, "user", "", "acting user recorded in the audit trail")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the column mapping without importing")
	return cmd
}

func importBookCmd() *cobra.Command {
	var (
		currency   string
		amountMode string
		amountKey  string
		incomeKey  string
		expenseKey string
		user       string
	)

	cmd := &cobra.Command{
		Use:   "book <name> <file>",
		Short: "Create a new book from a CSV file",
		Long: `Create a book whose schema is derived from the CSV columns, then import
every row. Column types are inferred from headers and sampled values.

Rows without a recognizable date fall back to today's date.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			interrupts := cli.NewInterruptHandler(os.Stderr)
			ctx := interrupts.HandleInterrupts(cmd.Context())

			content, err := os.ReadFile(args[1]) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to read CSV file: %w", err)
			}
			rows := importer.ParseCSV(string(content))

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			opts := importer.NewBookOptions{
				BookName:         args[0],
				Currency:         currency,
				PerformedBy:      user,
				AmountMode:       importer.AmountMode(amountMode),
				PrimaryAmountKey: amountKey,
				IncomeKey:        incomeKey,
				ExpenseKey:       expenseKey,
				Fields:           importer.DetectFields(rows),
			}
			opts.AutoDetect(opts.Fields)

			bar := progressbar.Default(int64(len(rows)-1), "importing")
			imp := importer.NewBookImporter{Store: store}
			book, result, err := imp.Run(ctx, rows, opts, func(processed, _ int) {
				_ = bar.Set(processed)
			})
			if err != nil {
				if interrupts.WasInterrupted() {
					return nil
				}
				return err
			}
			_ = bar.Finish()

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created book %q (%s) with %d transaction(s)",
				book.Name, book.ID, result.Created)))
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "USD", "book currency code")
	cmd.Flags().StringVar(&amountMode, "amount-mode", "", "amount column layout (single, split)")
	cmd.Flags().StringVar(&amountKey, "amount-key", "", "column key holding the amount (single mode)")
	cmd.Flags().StringVar(&incomeKey, "income-key", "", "column key holding income amounts (split mode)")
	cmd.Flags().StringVar(&expenseKey, "expense-key", "", "column key holding expense amounts (split mode)")
	cmd.Flags().StringVar(&user, "user", "", "acting user recorded in the audit trail")
	return cmd
}

func importOFXCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "ofx <book> <file>",
		Short: "Import an OFX/QFX bank statement into an existing book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[1]) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to open OFX file: %w", err)
			}
			defer func() { _ = f.Close() }()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			book, err := resolveBook(ctx, store, args[0])
			if err != nil {
				return err
			}

			imp := ofx.Importer{Store: store, PerformedBy: user}
			result, err := imp.Run(ctx, book.ID, f)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transaction(s) into %q",
				result.Created, book.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "acting user recorded in the audit trail")
	return cmd
}

func printMappings(mappings []importer.ColumnMapping) {
	fmt.Println(cli.FormatTitle("Column mapping"))
	for _, m := range mappings {
		sample := m.SampleValue
		if sample != "" {
			sample = " (e.g. " + sample + ")"
		}
		line := fmt.Sprintf("  %-24s → %s%s", m.Header, m.Target, sample)
		if m.Target == importer.TargetIgnore {
			line = cli.SubtleStyle.Render(line)
		}
		fmt.Println(strings.TrimRight(line, " "))
	}
}
