package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/cli"
	"github.com/lekha-app/lekha/internal/model"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage field templates",
		Long:  `List, save, and delete reusable schema templates. Use 'lekha books add --template' to create a book from one.`,
	}

	cmd.AddCommand(listTemplatesCmd())
	cmd.AddCommand(showTemplateCmd())
	cmd.AddCommand(saveTemplateCmd())
	cmd.AddCommand(deleteTemplateCmd())

	return cmd
}

func saveTemplateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "save <book> <name>",
		Short: "Save a book's schema as a reusable template",
		Long: `Capture a book's field configuration and preferences as a named
template, usable later with 'lekha books add --template'.`,
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

			tpl := &model.FieldTemplate{
				ID:          model.NewTemplateID(),
				Name:        args[1],
				Description: description,
				FieldConfig: book.FieldConfig,
				Preferences: book.Preferences,
				CreatedAt:   time.Now().UTC(),
			}
			if err := store.CreateTemplate(ctx, tpl); err != nil {
				return fmt.Errorf("failed to save template: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved template %q (%s) with %d field(s)",
				tpl.Name, tpl.ID, len(tpl.FieldConfig))))
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "template description")
	return cmd
}

func listTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			templates, err := store.ListTemplates(ctx)
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Fields"),
				cli.BoldStyle.Render("Description"))
			for _, tpl := range templates {
				name := tpl.Name
				if tpl.IsDefault {
					name += " " + cli.SubtleStyle.Render("(built-in)")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", tpl.ID, name, len(tpl.FieldConfig), tpl.Description)
			}
			return nil
		},
	}
}

func showTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a template's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tpl, err := store.GetTemplate(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(tpl.Name))
			if tpl.Description != "" {
				fmt.Println(cli.SubtleStyle.Render(tpl.Description))
			}
			for _, field := range tpl.FieldConfig {
				marker := ""
				if field.Required {
					marker = " (required)"
				}
				fmt.Printf("  %2d. %s [%s]%s\n", field.Order, field.Label, field.Type, marker)
			}
			return nil
		},
	}
}

func deleteTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user-created template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteTemplate(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Deleted template " + args[0]))
			return nil
		},
	}
}
