// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/lekha-app/lekha/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Storage defines the contract for the persistence layer. Mutating
// transaction operations write their audit log entry in the same atomic
// storage transaction as the record itself.
type Storage interface {
	// Book operations. DeleteBook removes only the book record; owned
	// transactions and audit logs are not cascade-deleted.
	CreateBook(ctx context.Context, book *model.Book) error
	PutBook(ctx context.Context, book *model.Book) error
	GetBook(ctx context.Context, id string) (*model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	DeleteBook(ctx context.Context, id string) error

	// Transaction operations.
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionsByBook(ctx context.Context, bookID string) ([]model.Transaction, error)
	GetTransactionsByBookFiltered(ctx context.Context, bookID string, filter TransactionFilter) ([]model.Transaction, error)

	// Audit operations. Logs are append-only; no mutation API exists.
	GetAuditLogsByBook(ctx context.Context, bookID string) ([]model.AuditLog, error)
	GetAuditLogsByTransaction(ctx context.Context, transactionID string) ([]model.AuditLog, error)

	// Template operations. Default templates cannot be deleted.
	CreateTemplate(ctx context.Context, tpl *model.FieldTemplate) error
	GetTemplate(ctx context.Context, id string) (*model.FieldTemplate, error)
	ListTemplates(ctx context.Context) ([]model.FieldTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error

	// Database management.
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// BookStore is the narrow surface the import pipelines need.
type BookStore interface {
	PutBook(ctx context.Context, book *model.Book) error
	CreateBook(ctx context.Context, book *model.Book) error
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
}
