package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
)

// fakeStore records everything the import pipelines write.
type fakeStore struct {
	books        []*model.Book
	puts         []*model.Book
	transactions []*model.Transaction
}

func (s *fakeStore) CreateBook(_ context.Context, book *model.Book) error {
	s.books = append(s.books, book)
	return nil
}

func (s *fakeStore) PutBook(_ context.Context, book *model.Book) error {
	s.puts = append(s.puts, book)
	return nil
}

func (s *fakeStore) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	s.transactions = append(s.transactions, txn)
	return nil
}

func simpleBook() *model.Book {
	return &model.Book{
		ID:       "book_import_test",
		Name:     "Import Test",
		Currency: "USD",
		FieldConfig: []model.FieldConfig{
			{Key: "amount", Label: "Amount", Type: model.FieldNumber, Order: 1, Visible: true},
			{Key: "date", Label: "Date", Type: model.FieldDate, Order: 2, Visible: true},
			{Key: "description", Label: "Description", Type: model.FieldText, Order: 3, Visible: true},
		},
	}
}

func TestBookImporterRun(t *testing.T) {
	ctx := context.Background()

	t.Run("split columns decide direction", func(t *testing.T) {
		store := &fakeStore{}
		imp := &BookImporter{Store: store, PerformedBy: "alice"}

		rows := [][]string{
			{"Date", "Narration", "Debit", "Credit"},
			{"2025-01-05", "salary", "", "2000"},
			{"2025-01-06", "rent", "800", ""},
		}
		mappings := GuessMappings(rows[0], rows[1], simpleBook().FieldConfig)

		res, err := imp.Run(ctx, simpleBook(), rows, mappings, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Created)
		assert.Equal(t, 0, res.Skipped)
		require.Len(t, store.transactions, 2)

		salary := store.transactions[0]
		assert.Equal(t, model.TypeIncome, salary.Type)
		assert.Equal(t, 2000.0, salary.Amount)
		assert.Equal(t, "salary", salary.Description)
		assert.Equal(t, "alice", salary.CreatedBy)
		assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), salary.TxnDate)

		rent := store.transactions[1]
		assert.Equal(t, model.TypeExpense, rent.Type)
		assert.Equal(t, 800.0, rent.Amount)
	})

	t.Run("net amount column splits on sign", func(t *testing.T) {
		store := &fakeStore{}
		imp := &BookImporter{Store: store}

		rows := [][]string{
			{"Date", "Amount"},
			{"2025-02-01", "-45.50"},
			{"2025-02-02", "120"},
		}
		mappings := []ColumnMapping{
			{Header: "Date", Target: TargetDate},
			{Header: "Amount", Target: TargetAmountNet},
		}

		res, err := imp.Run(ctx, simpleBook(), rows, mappings, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Created)

		assert.Equal(t, model.TypeExpense, store.transactions[0].Type)
		assert.Equal(t, 45.5, store.transactions[0].Amount)
		assert.Equal(t, model.TypeIncome, store.transactions[1].Type)
		assert.Equal(t, 120.0, store.transactions[1].Amount)
	})

	t.Run("rows without a parseable date are skipped", func(t *testing.T) {
		store := &fakeStore{}
		imp := &BookImporter{Store: store}

		rows := [][]string{
			{"Date", "Amount"},
			{"garbage", "10"},
			{"2025-02-03", "20"},
		}
		mappings := []ColumnMapping{
			{Header: "Date", Target: TargetDate},
			{Header: "Amount", Target: TargetAmountNet},
		}

		res, err := imp.Run(ctx, simpleBook(), rows, mappings, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Created)
		assert.Equal(t, 1, res.Skipped)
		require.Len(t, store.transactions, 1)
		assert.Equal(t, 20.0, store.transactions[0].Amount)
	})

	t.Run("create_new persists fields before any row", func(t *testing.T) {
		store := &fakeStore{}
		imp := &BookImporter{Store: store}
		book := simpleBook()

		rows := [][]string{
			{"Date", "Amount", "Project"},
			{"2025-03-01", "10", "alpha"},
		}
		mappings := []ColumnMapping{
			{Header: "Date", Target: TargetDate},
			{Header: "Amount", Target: TargetAmountNet},
			{Header: "Project", Target: TargetNewField, NewFieldLabel: "Project"},
		}

		res, err := imp.Run(ctx, book, rows, mappings, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Created)

		require.Len(t, store.puts, 1, "schema change saved before importing rows")
		require.Len(t, book.FieldConfig, 4)
		newField := book.FieldConfig[3]
		assert.Equal(t, "Project", newField.Label)
		assert.Equal(t, model.FieldText, newField.Type)

		val, ok := store.transactions[0].CustomData[newField.Key]
		require.True(t, ok)
		assert.Equal(t, "alpha", val.Text())
	})

	t.Run("import defaults fill missing columns", func(t *testing.T) {
		store := &fakeStore{}
		imp := &BookImporter{Store: store}

		rows := [][]string{
			{"Date", "Amount"},
			{"2025-03-02", "10"},
		}
		mappings := []ColumnMapping{
			{Header: "Date", Target: TargetDate},
			{Header: "Amount", Target: TargetAmountNet},
		}

		_, err := imp.Run(ctx, simpleBook(), rows, mappings, nil)
		require.NoError(t, err)
		txn := store.transactions[0]
		assert.Equal(t, "Uncategorized", txn.CategoryID)
		assert.Equal(t, "Cash", txn.PaymentMode)
		assert.Equal(t, "Imported Transaction", txn.Description)
	})

	t.Run("header-only file is empty", func(t *testing.T) {
		imp := &BookImporter{Store: &fakeStore{}}
		_, err := imp.Run(ctx, simpleBook(), [][]string{{"Date"}}, nil, nil)
		assert.ErrorIs(t, err, common.ErrEmptyCSV)
	})

	t.Run("mappings without a date column are rejected", func(t *testing.T) {
		store := &fakeStore{}
		imp := &BookImporter{Store: store}

		rows := [][]string{
			{"Amount"},
			{"10"},
		}
		mappings := []ColumnMapping{
			{Header: "Amount", Target: TargetAmountNet},
		}

		_, err := imp.Run(ctx, simpleBook(), rows, mappings, nil)
		assert.ErrorIs(t, err, common.ErrNoDateColumn)
		assert.Empty(t, store.transactions)
	})

	t.Run("progress reaches the final row", func(t *testing.T) {
		store := &fakeStore{}
		imp := &BookImporter{Store: store}

		rows := [][]string{{"Date", "Amount"}}
		for i := 1; i <= 25; i++ {
			rows = append(rows, []string{"2025-04-01", "1"})
		}
		mappings := []ColumnMapping{
			{Header: "Date", Target: TargetDate},
			{Header: "Amount", Target: TargetAmountNet},
		}

		var last int
		_, err := imp.Run(ctx, simpleBook(), rows, mappings, func(processed, total int) {
			last = processed
			assert.Equal(t, 25, total)
		})
		require.NoError(t, err)
		assert.Equal(t, 25, last)
	})
}
