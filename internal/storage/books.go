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

// CreateBook inserts a new book.
func (s *SQLiteStorage) CreateBook(ctx context.Context, book *model.Book) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createBook(ctx, s.db, book)
}

// PutBook updates an existing book, replacing its schema and preferences.
func (s *SQLiteStorage) PutBook(ctx context.Context, book *model.Book) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return putBook(ctx, s.db, book)
}

// GetBook returns one book by ID.
func (s *SQLiteStorage) GetBook(ctx context.Context, id string) (*model.Book, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getBook(ctx, s.db, id)
}

// ListBooks returns all books ordered by name.
func (s *SQLiteStorage) ListBooks(ctx context.Context) ([]model.Book, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listBooks(ctx, s.db)
}

// DeleteBook removes the book record only. Transactions and audit logs that
// reference the book are left in place.
func (s *SQLiteStorage) DeleteBook(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteBook(ctx, s.db, id)
}

func createBook(ctx context.Context, e execer, book *model.Book) error {
	if err := validateBook(book); err != nil {
		return err
	}

	fields, prefs, err := marshalBookColumns(book)
	if err != nil {
		return err
	}

	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO books (id, name, currency, primary_amount_field, field_config, preferences, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Name, book.Currency, book.PrimaryAmountField, fields, prefs, book.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	slog.Debug("created book", "id", book.ID, "name", book.Name)
	return nil
}

func putBook(ctx context.Context, e execer, book *model.Book) error {
	if err := validateBook(book); err != nil {
		return err
	}

	fields, prefs, err := marshalBookColumns(book)
	if err != nil {
		return err
	}

	result, err := e.ExecContext(ctx, `
		UPDATE books
		SET name = ?, currency = ?, primary_amount_field = ?, field_config = ?, preferences = ?
		WHERE id = ?`,
		book.Name, book.Currency, book.PrimaryAmountField, fields, prefs, book.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("book %s: %w", book.ID, common.ErrNotFound)
	}
	return nil
}

func getBook(ctx context.Context, e execer, id string) (*model.Book, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := e.QueryRowContext(ctx, `
		SELECT id, name, currency, primary_amount_field, field_config, preferences, created_at
		FROM books
		WHERE id = ?`, id)

	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

func listBooks(ctx context.Context, e execer) ([]model.Book, error) {
	rows, err := e.QueryContext(ctx, `
		SELECT id, name, currency, primary_amount_field, field_config, preferences, created_at
		FROM books
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		book, scanErr := scanBook(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	slog.Debug("retrieved books", "count", len(books))
	return books, nil
}

func deleteBook(ctx context.Context, e execer, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := e.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("book %s: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted book", "id", id)
	return nil
}

func marshalBookColumns(book *model.Book) (fields string, prefs sql.NullString, err error) {
	raw, err := json.Marshal(book.FieldConfig)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("failed to marshal field config: %w", err)
	}
	fields = string(raw)

	if book.Preferences != nil {
		rawPrefs, prefErr := json.Marshal(book.Preferences)
		if prefErr != nil {
			return "", sql.NullString{}, fmt.Errorf("failed to marshal preferences: %w", prefErr)
		}
		prefs = sql.NullString{String: string(rawPrefs), Valid: true}
	}
	return fields, prefs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*model.Book, error) {
	var book model.Book
	var fields string
	var prefs sql.NullString

	if err := row.Scan(&book.ID, &book.Name, &book.Currency, &book.PrimaryAmountField, &fields, &prefs, &book.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	if err := json.Unmarshal([]byte(fields), &book.FieldConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal field config: %w", err)
	}
	if prefs.Valid {
		book.Preferences = &model.Preferences{}
		if err := json.Unmarshal([]byte(prefs.String), book.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}
	return &book, nil
}
