package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/service"
)

func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	return store, func() { _ = store.Close() }
}

func testBook(name string) *model.Book {
	return &model.Book{
		ID:       model.NewBookID(),
		Name:     name,
		Currency: "USD",
		FieldConfig: []model.FieldConfig{
			{Key: "amount", Label: "Amount", Type: model.FieldNumber, Order: 1, Visible: true, Required: true},
			{Key: "date", Label: "Date", Type: model.FieldDate, Order: 2, Visible: true, Required: true},
			{Key: "description", Label: "Description", Type: model.FieldText, Order: 3, Visible: true},
			{Key: "notes", Label: "Notes", Type: model.FieldText, Order: 4, Visible: true},
		},
	}
}

func testTxn(bookID string, amount float64, date string) *model.Transaction {
	d, _ := time.Parse(model.DateLayout, date)
	return &model.Transaction{
		ID:          model.NewTransactionID(),
		BookID:      bookID,
		Type:        model.TypeExpense,
		Amount:      amount,
		TxnDate:     d,
		Description: "lunch",
		CategoryID:  "Food",
		CreatedBy:   "alice",
	}
}

func TestBookCRUD(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	book := testBook("Personal")
	book.Preferences = &model.Preferences{DefaultType: model.TypeExpense, DecimalPlaces: 2}
	require.NoError(t, store.CreateBook(ctx, book))

	got, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Personal", got.Name)
	assert.Len(t, got.FieldConfig, 4)
	require.NotNil(t, got.Preferences)
	assert.Equal(t, model.TypeExpense, got.Preferences.DefaultType)

	got.Name = "Household"
	got.FieldConfig = append(got.FieldConfig, model.FieldConfig{
		Key: "vendor", Label: "Vendor", Type: model.FieldText, Order: 5, Visible: true,
	})
	require.NoError(t, store.PutBook(ctx, got))

	updated, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Household", updated.Name)
	assert.Len(t, updated.FieldConfig, 5)

	books, err := store.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	_, err = store.GetBook(ctx, "book_missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteBookKeepsTransactions(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	book := testBook("Personal")
	require.NoError(t, store.CreateBook(ctx, book))

	txn := testTxn(book.ID, 42.50, "2024-03-01")
	require.NoError(t, store.CreateTransaction(ctx, txn))

	require.NoError(t, store.DeleteBook(ctx, book.ID))

	_, err := store.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Owned records survive the book deletion.
	orphan, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, orphan.BookID)

	logs, err := store.GetAuditLogsByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestCreateTransactionValidatesSchema(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	book := testBook("Personal")
	require.NoError(t, store.CreateBook(ctx, book))

	txn := testTxn(book.ID, 10, "2024-03-01")
	txn.CustomData = map[string]model.Value{"bogus": model.Text("x")}
	err := store.CreateTransaction(ctx, txn)
	assert.ErrorIs(t, err, ErrUnknownCustomField)

	txn.CustomData = map[string]model.Value{"notes": model.Text("team lunch")}
	require.NoError(t, store.CreateTransaction(ctx, txn))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "team lunch", got.CustomData["notes"].Text())
	assert.Equal(t, "2024-03-01", got.DateString())
}

func TestTransactionFilter(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	book := testBook("Personal")
	require.NoError(t, store.CreateBook(ctx, book))

	for _, date := range []string{"2024-01-15", "2024-02-15", "2024-03-15"} {
		require.NoError(t, store.CreateTransaction(ctx, testTxn(book.ID, 10, date)))
	}

	all, err := store.GetTransactionsByBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "2024-03-15", all[0].DateString())

	start, _ := time.Parse(model.DateLayout, "2024-02-01")
	end, _ := time.Parse(model.DateLayout, "2024-02-28")
	filtered, err := store.GetTransactionsByBookFiltered(ctx, book.ID, service.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "2024-02-15", filtered[0].DateString())

	limited, err := store.GetTransactionsByBookFiltered(ctx, book.ID, service.TransactionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	book := testBook("Personal")
	require.NoError(t, store.CreateBook(ctx, book))

	txn := testTxn(book.ID, 20, "2024-03-01")
	require.NoError(t, store.CreateTransaction(ctx, txn))

	t.Run("create entry", func(t *testing.T) {
		logs, err := store.GetAuditLogsByTransaction(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, model.ActionCreate, logs[0].Action)
		assert.Equal(t, "alice", logs[0].PerformedBy)
		assert.Empty(t, logs[0].Changes)
	})

	t.Run("update diff has one change per field", func(t *testing.T) {
		txn.Amount = 25
		txn.Description = "dinner"
		require.NoError(t, store.UpdateTransaction(ctx, txn))

		logs, err := store.GetAuditLogsByTransaction(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, logs, 2)

		var update *model.AuditLog
		for i := range logs {
			if logs[i].Action == model.ActionUpdate {
				update = &logs[i]
			}
		}
		require.NotNil(t, update)
		require.Len(t, update.Changes, 2)

		changed := map[string]bool{}
		for _, change := range update.Changes {
			changed[change.Field] = true
		}
		assert.True(t, changed["amount"])
		assert.True(t, changed["description"])
	})

	t.Run("no-op update still writes an entry", func(t *testing.T) {
		require.NoError(t, store.UpdateTransaction(ctx, txn))

		logs, err := store.GetAuditLogsByTransaction(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, logs, 3, "one entry per update operation")
		assert.Equal(t, model.ActionUpdate, logs[0].Action)
		assert.Empty(t, logs[0].Changes)
	})

	t.Run("delete records the event without field values", func(t *testing.T) {
		require.NoError(t, store.DeleteTransaction(ctx, txn.ID))

		_, err := store.GetTransaction(ctx, txn.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)

		logs, err := store.GetAuditLogsByTransaction(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, logs, 4)
		assert.Equal(t, model.ActionDelete, logs[0].Action)
		assert.Empty(t, logs[0].Changes)
	})
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	templates, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, templates, "migrations seed default templates")

	var builtin *model.FieldTemplate
	for i := range templates {
		if templates[i].IsDefault {
			builtin = &templates[i]
			break
		}
	}
	require.NotNil(t, builtin)

	err = store.DeleteTemplate(ctx, builtin.ID)
	require.Error(t, err)
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	custom := &model.FieldTemplate{
		ID:          model.NewTemplateID(),
		Name:        "Trip Tracker",
		Description: "Travel expenses",
		FieldConfig: builtin.FieldConfig,
	}
	require.NoError(t, store.CreateTemplate(ctx, custom))
	require.NoError(t, store.DeleteTemplate(ctx, custom.ID))

	_, err = store.GetTemplate(ctx, custom.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBeginTxRollback(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	book := testBook("Personal")
	require.NoError(t, store.CreateBook(ctx, book))

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateTransaction(ctx, testTxn(book.ID, 5, "2024-04-01")))
	require.NoError(t, tx.Rollback())

	txns, err := store.GetTransactionsByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}
