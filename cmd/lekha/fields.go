package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/cli"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/schema"
)

func fieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Manage a book's transaction schema",
		Long:  `List, add, reorder, and delete the custom fields of a book.`,
	}

	cmd.AddCommand(listFieldsCmd())
	cmd.AddCommand(addFieldCmd())
	cmd.AddCommand(moveFieldCmd())
	cmd.AddCommand(deleteFieldCmd())

	return cmd
}

func listFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <book>",
		Short: "List a book's fields in display order",
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

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Order"),
				cli.BoldStyle.Render("Label"),
				cli.BoldStyle.Render("Key"),
				cli.BoldStyle.Render("Type"),
				cli.BoldStyle.Render("Required"),
				cli.BoldStyle.Render("Visible"))
			for _, field := range schema.Sorted(book.FieldConfig) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\t%v\n",
					field.Order, field.Label, field.Key, field.Type, field.Required, field.Visible)
			}
			return nil
		},
	}
}

func addFieldCmd() *cobra.Command {
	var (
		fieldType string
		options   []string
		required  bool
	)

	cmd := &cobra.Command{
		Use:   "add <book> <label>",
		Short: "Add a field to a book's schema",
		Args:  cobra.ExactArgs(2),
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

			book.FieldConfig = schema.AddField(book.FieldConfig, args[1])
			added := &book.FieldConfig[len(book.FieldConfig)-1]
			if fieldType != "" {
				switch model.FieldType(fieldType) {
				case model.FieldText, model.FieldNumber, model.FieldDate,
					model.FieldDropdown, model.FieldCheckbox, model.FieldFile:
					added.Type = model.FieldType(fieldType)
				default:
					return fmt.Errorf("unknown field type %q", fieldType)
				}
			}
			added.Options = options
			added.Required = required

			if err := store.PutBook(ctx, book); err != nil {
				return fmt.Errorf("failed to save schema: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added field %q (key=%s)", added.Label, added.Key)))
			return nil
		},
	}

	cmd.Flags().StringVar(&fieldType, "type", "text", "field type (text, number, date, dropdown, checkbox, file)")
	cmd.Flags().StringSliceVar(&options, "option", nil, "dropdown option (repeatable)")
	cmd.Flags().BoolVar(&required, "required", false, "mark the field required")
	return cmd
}

func moveFieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <book> <key> <up|down>",
		Short: "Move a field up or down in display order",
		Args:  cobra.ExactArgs(3),
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

			var dir schema.MoveDirection
			switch strings.ToLower(args[2]) {
			case "up":
				dir = schema.MoveUp
			case "down":
				dir = schema.MoveDown
			default:
				return fmt.Errorf("direction must be up or down, got %q", args[2])
			}

			book.FieldConfig = schema.Sorted(book.FieldConfig)
			index := fieldIndex(book.FieldConfig, args[1])
			if index < 0 {
				return fmt.Errorf("field %q not found in book %q", args[1], book.Name)
			}

			book.FieldConfig = schema.MoveField(book.FieldConfig, index, dir)
			if err := store.PutBook(ctx, book); err != nil {
				return fmt.Errorf("failed to save schema: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Moved field %q %s", args[1], args[2])))
			return nil
		},
	}
}

func deleteFieldCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <book> <key>",
		Short: "Delete a field from a book's schema",
		Long: `Delete a schema field. The core fields (amount, date, description) are
protected; pass --force to remove them anyway. Values already stored under
the key remain in existing transactions.`,
		Args: cobra.ExactArgs(2),
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

			book.FieldConfig = schema.Sorted(book.FieldConfig)
			index := fieldIndex(book.FieldConfig, args[1])
			if index < 0 {
				return fmt.Errorf("field %q not found in book %q", args[1], book.Name)
			}

			book.FieldConfig, err = schema.DeleteField(book.FieldConfig, index, force)
			if err != nil {
				return err
			}

			if err := store.PutBook(ctx, book); err != nil {
				return fmt.Errorf("failed to save schema: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted field %q", args[1])))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "allow deleting core fields")
	return cmd
}

func fieldIndex(fields []model.FieldConfig, key string) int {
	for i := range fields {
		if fields[i].Key == key {
			return i
		}
	}
	return -1
}
