package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
)

// CreateTemplate inserts a new field template.
func (s *SQLiteStorage) CreateTemplate(ctx context.Context, tpl *model.FieldTemplate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createTemplate(ctx, s.db, tpl)
}

// GetTemplate returns one template by ID.
func (s *SQLiteStorage) GetTemplate(ctx context.Context, id string) (*model.FieldTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTemplate(ctx, s.db, id)
}

// ListTemplates returns all templates, defaults first.
func (s *SQLiteStorage) ListTemplates(ctx context.Context) ([]model.FieldTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTemplates(ctx, s.db)
}

// DeleteTemplate removes a user-created template. Built-in defaults are
// protected from deletion.
func (s *SQLiteStorage) DeleteTemplate(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteTemplate(ctx, s.db, id)
}

func createTemplate(ctx context.Context, e execer, tpl *model.FieldTemplate) error {
	if err := validateTemplate(tpl); err != nil {
		return err
	}

	fields, err := json.Marshal(tpl.FieldConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal template fields: %w", err)
	}
	var prefs sql.NullString
	if tpl.Preferences != nil {
		raw, prefErr := json.Marshal(tpl.Preferences)
		if prefErr != nil {
			return fmt.Errorf("failed to marshal template preferences: %w", prefErr)
		}
		prefs = sql.NullString{String: string(raw), Valid: true}
	}

	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now()
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO templates (id, name, description, field_config, preferences, is_default, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tpl.ID, tpl.Name, tpl.Description, string(fields), prefs, tpl.IsDefault, tpl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}

	slog.Debug("created template", "id", tpl.ID, "name", tpl.Name)
	return nil
}

func getTemplate(ctx context.Context, e execer, id string) (*model.FieldTemplate, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := e.QueryRowContext(ctx, `
		SELECT id, name, description, field_config, preferences, is_default, created_at
		FROM templates
		WHERE id = ?`, id)

	tpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func listTemplates(ctx context.Context, e execer) ([]model.FieldTemplate, error) {
	rows, err := e.QueryContext(ctx, `
		SELECT id, name, description, field_config, preferences, is_default, created_at
		FROM templates
		ORDER BY is_default DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []model.FieldTemplate
	for rows.Next() {
		tpl, scanErr := scanTemplate(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		templates = append(templates, *tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	return templates, nil
}

func deleteTemplate(ctx context.Context, e execer, id string) error {
	tpl, err := getTemplate(ctx, e, id)
	if err != nil {
		return err
	}
	if tpl.IsDefault {
		return common.NewUserError(
			fmt.Sprintf("Cannot delete built-in template %q.", tpl.Name),
			fmt.Errorf("template %s is a built-in default", id),
		)
	}

	if _, err := e.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	slog.Info("deleted template", "id", id, "name", tpl.Name)
	return nil
}

func scanTemplate(row rowScanner) (*model.FieldTemplate, error) {
	var tpl model.FieldTemplate
	var fields string
	var prefs sql.NullString

	if err := row.Scan(&tpl.ID, &tpl.Name, &tpl.Description, &fields, &prefs, &tpl.IsDefault, &tpl.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}

	if err := json.Unmarshal([]byte(fields), &tpl.FieldConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template fields: %w", err)
	}
	if prefs.Valid {
		tpl.Preferences = &model.Preferences{}
		if err := json.Unmarshal([]byte(prefs.String), tpl.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template preferences: %w", err)
		}
	}
	return &tpl, nil
}
