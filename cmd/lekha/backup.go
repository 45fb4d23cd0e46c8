package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/backup"
	"github.com/lekha-app/lekha/internal/cli"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and import JSON backups",
	}

	cmd.AddCommand(exportBookCmd())
	cmd.AddCommand(exportAllCmd())
	cmd.AddCommand(importCopyCmd())

	return cmd
}

func exportBookCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <book>",
		Short: "Export one book and its transactions as JSON",
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

			w := os.Stdout
			if out != "" {
				f, createErr := os.Create(out) // #nosec G304
				if createErr != nil {
					return fmt.Errorf("failed to create output file: %w", createErr)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			if err := backup.NewService(store).ExportBook(ctx, book.ID, w); err != nil {
				return err
			}
			if out != "" {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %q to %s", book.Name, out)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func exportAllCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-all",
		Short: "Export every book as a full backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			w := os.Stdout
			if out != "" {
				f, createErr := os.Create(out) // #nosec G304
				if createErr != nil {
					return fmt.Errorf("failed to create output file: %w", createErr)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			result, err := backup.NewService(store).ExportAll(ctx, w)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d book(s) to %s", len(result.Books), out)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func importCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a book export as a new copy",
		Long: `Import a single-book export file. The book and all of its transactions
get fresh identifiers, so importing never overwrites existing data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0]) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer func() { _ = f.Close() }()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			book, err := backup.NewService(store).ImportBookAsCopy(ctx, f)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported book %q (%s)", book.Name, book.ID)))
			return nil
		},
	}
}

func restoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore a full backup",
		Long: `Restore a full backup file. Books and transactions are matched by ID:
existing records are overwritten, missing ones are created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !yes {
				confirmed, err := cli.NewPrompter(nil, nil).Confirm("Restoring overwrites records with matching IDs. Continue?", false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println(cli.FormatInfo("Aborted."))
					return nil
				}
			}

			f, err := os.Open(args[0]) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer func() { _ = f.Close() }()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := backup.NewService(store).Restore(ctx, f); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Restore complete"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip confirmation prompt")
	return cmd
}
