// Package testutil provides shared helpers for tests that need a real
// storage backend.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/service"
	"github.com/lekha-app/lekha/internal/storage"
)

// TestDB wraps an in-memory storage instance for use in tests.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database that is closed when the
// test finishes.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustCreateBook inserts a book with the core schema and returns it.
func (db *TestDB) MustCreateBook(ctx context.Context, name string) *model.Book {
	db.t.Helper()

	book := &model.Book{
		ID:       model.NewBookID(),
		Name:     name,
		Currency: "USD",
		FieldConfig: []model.FieldConfig{
			{Key: "amount", Label: "Amount", Type: model.FieldNumber, Order: 1, Visible: true, Required: true},
			{Key: "date", Label: "Date", Type: model.FieldDate, Order: 2, Visible: true, Required: true},
			{Key: "description", Label: "Description", Type: model.FieldText, Order: 3, Visible: true},
		},
	}
	if err := db.Storage.CreateBook(ctx, book); err != nil {
		db.t.Fatalf("failed to create book %q: %v", name, err)
	}
	return book
}

// MustCreateTransaction inserts a minimal transaction into the given book.
func (db *TestDB) MustCreateTransaction(ctx context.Context, bookID string, txnType model.TransactionType, amount float64, date string) *model.Transaction {
	db.t.Helper()

	txnDate, err := time.Parse(model.DateLayout, date)
	if err != nil {
		db.t.Fatalf("invalid test date %q: %v", date, err)
	}
	txn := &model.Transaction{
		ID:          model.NewTransactionID(),
		BookID:      bookID,
		Type:        txnType,
		Amount:      amount,
		TxnDate:     txnDate,
		Description: "test transaction",
		CategoryID:  "uncategorized",
	}
	if err := db.Storage.CreateTransaction(ctx, txn); err != nil {
		db.t.Fatalf("failed to create transaction: %v", err)
	}
	return txn
}
