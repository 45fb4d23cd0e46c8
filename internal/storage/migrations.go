package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lekha-app/lekha/internal/model"
)

// ExpectedSchemaVersion is the schema version after all migrations run.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: books and transactions",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS books (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					currency TEXT NOT NULL DEFAULT '',
					primary_amount_field TEXT NOT NULL DEFAULT '',
					field_config TEXT NOT NULL DEFAULT '[]',
					preferences TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				)
			`); err != nil {
				return fmt.Errorf("failed to create books table: %w", err)
			}

			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					book_id TEXT NOT NULL,
					type TEXT NOT NULL,
					amount REAL NOT NULL DEFAULT 0,
					txn_date TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					category_id TEXT NOT NULL DEFAULT '',
					party_id TEXT NOT NULL DEFAULT '',
					payment_mode TEXT NOT NULL DEFAULT '',
					tags TEXT NOT NULL DEFAULT '[]',
					attachments TEXT NOT NULL DEFAULT '[]',
					custom_data TEXT NOT NULL DEFAULT '{}',
					created_by TEXT NOT NULL DEFAULT '',
					recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				)
			`); err != nil {
				return fmt.Errorf("failed to create transactions table: %w", err)
			}

			if _, err := tx.Exec(`CREATE INDEX idx_transactions_book ON transactions(book_id)`); err != nil {
				return fmt.Errorf("failed to create book index: %w", err)
			}
			if _, err := tx.Exec(`CREATE INDEX idx_transactions_date ON transactions(txn_date)`); err != nil {
				return fmt.Errorf("failed to create date index: %w", err)
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add audit log table",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS audit_logs (
					id TEXT PRIMARY KEY,
					book_id TEXT NOT NULL,
					transaction_id TEXT NOT NULL,
					action TEXT NOT NULL,
					changes TEXT NOT NULL DEFAULT '[]',
					performed_by TEXT NOT NULL DEFAULT 'system',
					timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				)
			`); err != nil {
				return fmt.Errorf("failed to create audit_logs table: %w", err)
			}

			if _, err := tx.Exec(`CREATE INDEX idx_audit_logs_book ON audit_logs(book_id)`); err != nil {
				return fmt.Errorf("failed to create audit book index: %w", err)
			}
			if _, err := tx.Exec(`CREATE INDEX idx_audit_logs_transaction ON audit_logs(transaction_id)`); err != nil {
				return fmt.Errorf("failed to create audit transaction index: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add field templates table with seeded defaults",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS templates (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					field_config TEXT NOT NULL DEFAULT '[]',
					preferences TEXT,
					is_default INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				)
			`); err != nil {
				return fmt.Errorf("failed to create templates table: %w", err)
			}

			for _, tpl := range defaultTemplates() {
				fields, err := json.Marshal(tpl.FieldConfig)
				if err != nil {
					return fmt.Errorf("failed to marshal template fields: %w", err)
				}
				if _, err := tx.Exec(`
					INSERT INTO templates (id, name, description, field_config, is_default, created_at)
					VALUES (?, ?, ?, ?, 1, ?)
				`, tpl.ID, tpl.Name, tpl.Description, string(fields), tpl.CreatedAt); err != nil {
					return fmt.Errorf("failed to seed template %q: %w", tpl.Name, err)
				}
			}
			return nil
		},
	},
}

// defaultTemplates returns the built-in schema templates seeded at migration
// time. Their IDs are stable so repeated installs stay consistent.
func defaultTemplates() []model.FieldTemplate {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	core := []model.FieldConfig{
		{Key: "amount", Label: "Amount", Type: model.FieldNumber, Order: 1, Visible: true, Required: true},
		{Key: "date", Label: "Date", Type: model.FieldDate, Order: 2, Visible: true, Required: true},
		{Key: "description", Label: "Description", Type: model.FieldText, Order: 3, Visible: true, Multiline: true},
	}
	expense := append(append([]model.FieldConfig{}, core...),
		model.FieldConfig{Key: "receipt", Label: "Receipt", Type: model.FieldFile, Order: 4, Visible: true},
	)
	business := append(append([]model.FieldConfig{}, core...),
		model.FieldConfig{Key: "invoice_number", Label: "Invoice Number", Type: model.FieldText, Order: 4, Visible: true},
		model.FieldConfig{Key: "tax_rate", Label: "Tax Rate", Type: model.FieldNumber, Order: 5, Visible: true},
	)
	return []model.FieldTemplate{
		{
			ID:          "tpl_default_simple",
			Name:        "Simple Ledger",
			Description: "Amount, date and description only",
			FieldConfig: core,
			IsDefault:   true,
			CreatedAt:   now,
		},
		{
			ID:          "tpl_default_expense",
			Name:        "Expense Tracker",
			Description: "Core fields plus a receipt attachment",
			FieldConfig: expense,
			IsDefault:   true,
			CreatedAt:   now,
		},
		{
			ID:          "tpl_default_business",
			Name:        "Business Book",
			Description: "Core fields plus invoice number and tax rate",
			FieldConfig: business,
			IsDefault:   true,
			CreatedAt:   now,
		},
	}
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
