// Package storage provides the data persistence layer for the lekha application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lekha-app/lekha/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidBook        = errors.New("invalid book")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidTemplate    = errors.New("invalid template")
	ErrUnknownCustomField = errors.New("custom data field not defined in book schema")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateBook validates a single book.
func validateBook(book *model.Book) error {
	if book == nil {
		return fmt.Errorf("%w: book", ErrNilParameter)
	}
	if book.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBook)
	}
	if strings.TrimSpace(book.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidBook)
	}
	seen := make(map[string]bool, len(book.FieldConfig))
	for _, field := range book.FieldConfig {
		if field.Key == "" {
			return fmt.Errorf("%w: field with empty key", ErrInvalidBook)
		}
		if seen[field.Key] {
			return fmt.Errorf("%w: duplicate field key %q", ErrInvalidBook, field.Key)
		}
		seen[field.Key] = true
	}
	return nil
}

// validateTransaction validates a single transaction against its book's schema.
// Custom data keys must be declared in the book's field configuration.
func validateTransaction(txn *model.Transaction, book *model.Book) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.BookID == "" {
		return fmt.Errorf("%w: missing book ID", ErrInvalidTransaction)
	}
	if txn.TxnDate.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	switch txn.Type {
	case model.TypeIncome, model.TypeExpense, model.TypeTransfer:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	if book != nil {
		for key := range txn.CustomData {
			if book.FieldByKey(key) == nil {
				return fmt.Errorf("%w: %q", ErrUnknownCustomField, key)
			}
		}
	}
	return nil
}

// validateTemplate validates a field template.
func validateTemplate(tpl *model.FieldTemplate) error {
	if tpl == nil {
		return fmt.Errorf("%w: template", ErrNilParameter)
	}
	if tpl.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTemplate)
	}
	if strings.TrimSpace(tpl.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTemplate)
	}
	return nil
}
