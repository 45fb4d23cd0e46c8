// Package backup implements JSON export and restore of books and their
// transactions.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/service"
)

// FormatVersion is the backup file format version.
const FormatVersion = "1.0"

// BookExport is a single-book export file.
type BookExport struct {
	ExportedAt   time.Time           `json:"exported_at"`
	Book         model.Book          `json:"book"`
	Version      string              `json:"version"`
	Transactions []model.Transaction `json:"transactions"`
}

// FullBackup is a whole-database export file.
type FullBackup struct {
	ExportedAt   time.Time           `json:"exported_at"`
	Version      string              `json:"version"`
	Books        []model.Book        `json:"books"`
	Transactions []model.Transaction `json:"transactions"`
}

// Service performs backup and restore operations against storage.
type Service struct {
	store service.Storage
}

// NewService creates a backup service.
func NewService(store service.Storage) *Service {
	return &Service{store: store}
}

// ExportBook writes one book and its transactions as JSON.
func (s *Service) ExportBook(ctx context.Context, bookID string, w io.Writer) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	txns, err := s.store.GetTransactionsByBook(ctx, bookID)
	if err != nil {
		return err
	}

	export := BookExport{
		Book:         *book,
		Transactions: nonNilTxns(txns),
		ExportedAt:   time.Now().UTC(),
		Version:      FormatVersion,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode book export: %w", err)
	}

	slog.Info("exported book", "book", bookID, "transactions", len(txns))
	return nil
}

// ExportAll writes every book and transaction as JSON.
func (s *Service) ExportAll(ctx context.Context, w io.Writer) (*FullBackup, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	backup := FullBackup{
		Books:        books,
		Transactions: []model.Transaction{},
		ExportedAt:   time.Now().UTC(),
		Version:      FormatVersion,
	}
	for _, book := range books {
		txns, txnErr := s.store.GetTransactionsByBook(ctx, book.ID)
		if txnErr != nil {
			return nil, txnErr
		}
		backup.Transactions = append(backup.Transactions, txns...)
	}

	if w != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(backup); err != nil {
			return nil, fmt.Errorf("failed to encode backup: %w", err)
		}
	}

	slog.Info("exported all books", "books", len(books), "transactions", len(backup.Transactions))
	return &backup, nil
}

// ImportBookAsCopy reads a single-book export and inserts it as a new book.
// All identifiers are regenerated so the copy never collides with the
// original, and the book name gets a "(Copy)" suffix when it already exists.
func (s *Service) ImportBookAsCopy(ctx context.Context, r io.Reader) (*model.Book, error) {
	var export BookExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, common.NewUserError("backup file is not valid JSON", err)
	}
	if export.Book.ID == "" {
		return nil, common.NewUserError("backup file does not contain a book", nil)
	}

	book := export.Book
	book.ID = model.NewBookID()
	book.CreatedAt = time.Now()
	if name, taken := s.nameTaken(ctx, book.Name); taken {
		book.Name = name + " (Copy)"
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.CreateBook(ctx, &book); err != nil {
		return nil, err
	}
	for i := range export.Transactions {
		txn := export.Transactions[i]
		txn.ID = model.NewTransactionID()
		txn.BookID = book.ID
		if err := tx.CreateTransaction(ctx, &txn); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("imported book copy", "book", book.ID, "name", book.Name, "transactions", len(export.Transactions))
	return &book, nil
}

// Restore reads a full backup and upserts every book and transaction,
// preserving identifiers. Existing records with matching IDs are replaced.
func (s *Service) Restore(ctx context.Context, r io.Reader) error {
	var backup FullBackup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return common.NewUserError("backup file is not valid JSON", err)
	}
	return s.RestoreBackup(ctx, &backup)
}

// RestoreBackup upserts the contents of an already decoded backup.
func (s *Service) RestoreBackup(ctx context.Context, backup *FullBackup) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i := range backup.Books {
		book := backup.Books[i]
		if err := upsertBook(ctx, tx, &book); err != nil {
			return err
		}
	}
	for i := range backup.Transactions {
		txn := backup.Transactions[i]
		if err := upsertTransaction(ctx, tx, &txn); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("restored backup", "books", len(backup.Books), "transactions", len(backup.Transactions))
	return nil
}

func (s *Service) nameTaken(ctx context.Context, name string) (string, bool) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return name, false
	}
	for _, book := range books {
		if book.Name == name {
			return name, true
		}
	}
	return name, false
}

func upsertBook(ctx context.Context, tx service.Transaction, book *model.Book) error {
	err := tx.PutBook(ctx, book)
	if errors.Is(err, common.ErrNotFound) {
		return tx.CreateBook(ctx, book)
	}
	return err
}

func upsertTransaction(ctx context.Context, tx service.Transaction, txn *model.Transaction) error {
	err := tx.UpdateTransaction(ctx, txn)
	if errors.Is(err, common.ErrNotFound) {
		return tx.CreateTransaction(ctx, txn)
	}
	return err
}

func nonNilTxns(txns []model.Transaction) []model.Transaction {
	if txns == nil {
		return []model.Transaction{}
	}
	return txns
}
