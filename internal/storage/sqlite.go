package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Validate input
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
	}, nil
}

// execer abstracts *sql.DB and *sql.Tx so entity helpers can run inside
// or outside an explicit transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Storage methods delegate to the shared helpers using the open transaction.

func (t *sqliteTransaction) CreateBook(ctx context.Context, book *model.Book) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createBook(ctx, t.tx, book)
}

func (t *sqliteTransaction) PutBook(ctx context.Context, book *model.Book) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return putBook(ctx, t.tx, book)
}

func (t *sqliteTransaction) GetBook(ctx context.Context, id string) (*model.Book, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getBook(ctx, t.tx, id)
}

func (t *sqliteTransaction) ListBooks(ctx context.Context) ([]model.Book, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listBooks(ctx, t.tx)
}

func (t *sqliteTransaction) DeleteBook(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteBook(ctx, t.tx, id)
}

func (t *sqliteTransaction) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createTransaction(ctx, t.tx, txn)
}

func (t *sqliteTransaction) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return updateTransaction(ctx, t.tx, txn)
}

func (t *sqliteTransaction) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteTransaction(ctx, t.tx, id, "")
}

func (t *sqliteTransaction) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransaction(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetTransactionsByBook(ctx context.Context, bookID string) ([]model.Transaction, error) {
	return t.GetTransactionsByBookFiltered(ctx, bookID, service.TransactionFilter{})
}

func (t *sqliteTransaction) GetTransactionsByBookFiltered(ctx context.Context, bookID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransactionsByBook(ctx, t.tx, bookID, filter)
}

func (t *sqliteTransaction) GetAuditLogsByBook(ctx context.Context, bookID string) ([]model.AuditLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(bookID, "bookID"); err != nil {
		return nil, err
	}
	return queryAuditLogs(ctx, t.tx, `book_id = ?`, bookID)
}

func (t *sqliteTransaction) GetAuditLogsByTransaction(ctx context.Context, transactionID string) ([]model.AuditLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}
	return queryAuditLogs(ctx, t.tx, `transaction_id = ?`, transactionID)
}

func (t *sqliteTransaction) CreateTemplate(ctx context.Context, tpl *model.FieldTemplate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createTemplate(ctx, t.tx, tpl)
}

func (t *sqliteTransaction) GetTemplate(ctx context.Context, id string) (*model.FieldTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTemplate(ctx, t.tx, id)
}

func (t *sqliteTransaction) ListTemplates(ctx context.Context) ([]model.FieldTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTemplates(ctx, t.tx)
}

func (t *sqliteTransaction) DeleteTemplate(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteTemplate(ctx, t.tx, id)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
