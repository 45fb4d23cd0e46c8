package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/testutil"
)

func TestExportBookRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := NewService(db.Storage)

	book := db.MustCreateBook(ctx, "Household")
	db.MustCreateTransaction(ctx, book.ID, model.TypeExpense, 45.50, "2025-01-10")
	db.MustCreateTransaction(ctx, book.ID, model.TypeIncome, 2000, "2025-01-01")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportBook(ctx, book.ID, &buf))

	var export BookExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, FormatVersion, export.Version)
	assert.Equal(t, book.ID, export.Book.ID)
	assert.Equal(t, "Household", export.Book.Name)
	assert.Len(t, export.Transactions, 2)
	assert.False(t, export.ExportedAt.IsZero())
}

func TestExportBookWithoutTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := NewService(db.Storage)

	book := db.MustCreateBook(ctx, "Empty")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportBook(ctx, book.ID, &buf))

	// An empty book still exports a JSON array, not null.
	assert.Contains(t, buf.String(), `"transactions": []`)
}

func TestExportAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := NewService(db.Storage)

	first := db.MustCreateBook(ctx, "First")
	second := db.MustCreateBook(ctx, "Second")
	db.MustCreateTransaction(ctx, first.ID, model.TypeExpense, 10, "2025-02-01")
	db.MustCreateTransaction(ctx, second.ID, model.TypeExpense, 20, "2025-02-02")

	backup, err := svc.ExportAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, backup.Books, 2)
	assert.Len(t, backup.Transactions, 2)
	assert.Equal(t, FormatVersion, backup.Version)
}

func TestImportBookAsCopy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := NewService(db.Storage)

	book := db.MustCreateBook(ctx, "Household")
	original := db.MustCreateTransaction(ctx, book.ID, model.TypeExpense, 99, "2025-03-01")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportBook(ctx, book.ID, &buf))

	copy1, err := svc.ImportBookAsCopy(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.NotEqual(t, book.ID, copy1.ID, "book ID is regenerated")
	assert.Equal(t, "Household (Copy)", copy1.Name)

	txns, err := db.Storage.GetTransactionsByBook(ctx, copy1.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.NotEqual(t, original.ID, txns[0].ID, "transaction IDs are regenerated")
	assert.Equal(t, copy1.ID, txns[0].BookID)
	assert.Equal(t, 99.0, txns[0].Amount)

	// The original book is untouched.
	originals, err := db.Storage.GetTransactionsByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Len(t, originals, 1)
}

func TestImportBookAsCopyRejectsGarbage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db.Storage)

	_, err := svc.ImportBookAsCopy(context.Background(), bytes.NewReader([]byte("not json")))
	require.Error(t, err)

	_, err = svc.ImportBookAsCopy(context.Background(), bytes.NewReader([]byte("{}")))
	require.Error(t, err)
}

func TestRestoreUpserts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := NewService(db.Storage)

	book := db.MustCreateBook(ctx, "Household")
	txn := db.MustCreateTransaction(ctx, book.ID, model.TypeExpense, 10, "2025-04-01")

	var buf bytes.Buffer
	_, err := svc.ExportAll(ctx, &buf)
	require.NoError(t, err)

	// Diverge the live data, then restore the snapshot over it.
	txn.Amount = 999
	require.NoError(t, db.Storage.UpdateTransaction(ctx, txn))
	require.NoError(t, db.Storage.DeleteBook(ctx, book.ID))

	require.NoError(t, svc.Restore(ctx, bytes.NewReader(buf.Bytes())))

	restoredBook, err := db.Storage.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Household", restoredBook.Name)

	restoredTxn, err := db.Storage.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, restoredTxn.Amount, "matching IDs are overwritten")

	// Restore is idempotent.
	require.NoError(t, svc.Restore(ctx, bytes.NewReader(buf.Bytes())))
	books, err := db.Storage.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}
