package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/testutil"
)

func salesRows() [][]string {
	return [][]string{
		{"Date", "Description", "Amount", "Mode"},
		{"2025-01-10", "stationery", "45.00", "Cash"},
		{"2025-01-11", "printer ink", "120.00", "Card"},
	}
}

func TestDetectFields(t *testing.T) {
	fields := DetectFields(salesRows())
	require.Len(t, fields, 4)

	assert.Equal(t, model.FieldDate, fields[0].Type)
	assert.Equal(t, "date", fields[0].Key)
	assert.Equal(t, model.FieldText, fields[1].Type)
	assert.Equal(t, model.FieldNumber, fields[2].Type)
	assert.Equal(t, "45.00", fields[2].SampleValue)
	assert.True(t, fields[3].Include)
}

func TestAutoDetect(t *testing.T) {
	fields := []DetectedField{
		{Key: "date", Label: "Date", Type: model.FieldDate},
		{Key: "credit", Label: "Credit", Type: model.FieldNumber},
		{Key: "debit", Label: "Debit", Type: model.FieldNumber},
		{Key: "txn_time", Label: "Time", Type: model.FieldText},
	}

	var opts NewBookOptions
	opts.AutoDetect(fields)

	assert.Equal(t, "credit", opts.IncomeKey)
	assert.Equal(t, "debit", opts.ExpenseKey)
	assert.Equal(t, "txn_time", opts.TimeKey)
	// No amount-named column, so the first numeric one wins.
	assert.Equal(t, "credit", opts.PrimaryAmountKey)
}

func TestNewBookImporterRun(t *testing.T) {
	ctx := context.Background()

	t.Run("single amount mode", func(t *testing.T) {
		store := &fakeStore{}
		imp := &NewBookImporter{Store: store}

		rows := salesRows()
		opts := NewBookOptions{
			BookName:    "Office",
			Currency:    "USD",
			PerformedBy: "alice",
			AmountMode:  AmountSingle,
			Fields:      DetectFields(rows),
		}
		opts.AutoDetect(opts.Fields)

		book, res, err := imp.Run(ctx, rows, opts, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Created)

		require.Len(t, store.books, 1)
		assert.Equal(t, "Office", book.Name)
		assert.Equal(t, "amount", book.PrimaryAmountField)

		// Date first, amount last.
		ordered := book.FieldConfig
		require.Len(t, ordered, 4)
		assert.Equal(t, "date", ordered[0].Key)
		assert.Equal(t, "amount", ordered[3].Key)
		assert.Equal(t, []int{1, 2, 3, 4}, fieldOrders(ordered))

		require.Len(t, store.transactions, 2)
		first := store.transactions[0]
		assert.Equal(t, 45.0, first.Amount)
		assert.Equal(t, model.TypeExpense, first.Type)
		assert.Equal(t, "stationery", first.Description)
		assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), first.TxnDate)
		assert.Equal(t, "Cash", first.CustomData["mode"].Text())
	})

	t.Run("split amount mode", func(t *testing.T) {
		store := &fakeStore{}
		imp := &NewBookImporter{Store: store}

		rows := [][]string{
			{"Date", "Credit", "Debit"},
			{"2025-02-01", "500", ""},
			{"2025-02-02", "", "75"},
		}
		opts := NewBookOptions{
			BookName:   "Bank",
			Currency:   "USD",
			AmountMode: AmountSplit,
			Fields:     DetectFields(rows),
		}
		opts.AutoDetect(opts.Fields)

		book, res, err := imp.Run(ctx, rows, opts, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Created)

		// Split columns never enter the schema; a synthetic amount does.
		keys := make([]string, len(book.FieldConfig))
		for i, f := range book.FieldConfig {
			keys[i] = f.Key
		}
		assert.Equal(t, []string{"date", "amount"}, keys)
		assert.Equal(t, "amount", book.PrimaryAmountField)
		assert.True(t, book.FieldConfig[1].Required)

		credit := store.transactions[0]
		assert.Equal(t, model.TypeIncome, credit.Type)
		assert.Equal(t, 500.0, credit.Amount)
		assert.Equal(t, 500.0, credit.CustomData["amount"].Number())

		debit := store.transactions[1]
		assert.Equal(t, model.TypeExpense, debit.Type)
		assert.Equal(t, 75.0, debit.Amount)
	})

	t.Run("credit-labeled primary column yields income", func(t *testing.T) {
		store := &fakeStore{}
		imp := &NewBookImporter{Store: store}

		rows := [][]string{
			{"Date", "Credit"},
			{"2025-01-05", "50"},
		}
		opts := NewBookOptions{
			BookName:   "Deposits",
			AmountMode: AmountSingle,
			Fields:     DetectFields(rows),
		}
		opts.AutoDetect(opts.Fields)
		require.Equal(t, "credit", opts.PrimaryAmountKey)

		_, res, err := imp.Run(ctx, rows, opts, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Created)

		txn := store.transactions[0]
		assert.Equal(t, model.TypeIncome, txn.Type)
		assert.Equal(t, 50.0, txn.Amount)
	})

	t.Run("unparseable date defaults to today", func(t *testing.T) {
		store := &fakeStore{}
		imp := &NewBookImporter{Store: store}

		rows := [][]string{
			{"Date", "Amount"},
			{"mystery", "10"},
		}
		opts := NewBookOptions{
			BookName: "Messy",
			Fields:   DetectFields(rows),
		}
		opts.AutoDetect(opts.Fields)

		_, res, err := imp.Run(ctx, rows, opts, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Created, "bad dates do not skip rows on this path")

		today := time.Now().UTC().Truncate(24 * time.Hour)
		assert.Equal(t, today, store.transactions[0].TxnDate)
	})

	t.Run("time column folds into recorded_at", func(t *testing.T) {
		store := &fakeStore{}
		imp := &NewBookImporter{Store: store}

		rows := [][]string{
			{"Date", "Time", "Amount"},
			{"2025-03-05", "14:45", "30"},
		}
		opts := NewBookOptions{
			BookName: "Timed",
			TimeKey:  "time",
			Fields:   DetectFields(rows),
		}
		opts.AutoDetect(opts.Fields)

		book, _, err := imp.Run(ctx, rows, opts, nil)
		require.NoError(t, err)

		// The time column stays out of the schema.
		for _, f := range book.FieldConfig {
			assert.NotEqual(t, "time", f.Key)
		}
		assert.Equal(t,
			time.Date(2025, 3, 5, 14, 45, 0, 0, time.UTC),
			store.transactions[0].RecordedAt)
	})

	t.Run("book name is required", func(t *testing.T) {
		imp := &NewBookImporter{Store: &fakeStore{}}
		rows := salesRows()
		_, _, err := imp.Run(ctx, rows, NewBookOptions{Fields: DetectFields(rows)}, nil)
		require.Error(t, err)
	})
}

func TestNewBookImporterSplitModePersists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	imp := &NewBookImporter{Store: db.Storage}

	rows := [][]string{
		{"Date", "Credit", "Debit"},
		{"2025-02-01", "500", ""},
		{"2025-02-02", "", "75"},
	}
	opts := NewBookOptions{
		BookName:   "Bank Statement",
		Currency:   "USD",
		AmountMode: AmountSplit,
		Fields:     DetectFields(rows),
	}
	opts.AutoDetect(opts.Fields)

	// The real storage layer rejects custom data keys outside the book schema,
	// so the excluded split columns must never reach it.
	book, res, err := imp.Run(ctx, rows, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	txns, err := db.Storage.GetTransactionsByBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		_, hasCredit := txn.CustomData["credit"]
		_, hasDebit := txn.CustomData["debit"]
		assert.False(t, hasCredit)
		assert.False(t, hasDebit)
		assert.Equal(t, txn.Amount, txn.CustomData["amount"].Number())
	}
}

func fieldOrders(fields []model.FieldConfig) []int {
	out := make([]int, len(fields))
	for i, f := range fields {
		out[i] = f.Order
	}
	return out
}
