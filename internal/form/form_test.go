package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekha-app/lekha/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func TestValidate(t *testing.T) {
	fields := []model.FieldConfig{
		{Key: "amount", Label: "Amount", Type: model.FieldNumber, Visible: true, Required: true,
			Validation: &model.Validation{Min: floatPtr(0), Max: floatPtr(1000)}},
		{Key: "paid", Label: "Paid", Type: model.FieldCheckbox, Visible: true},
		{Key: "invoice", Label: "Invoice", Type: model.FieldText, Visible: true,
			Validation: &model.Validation{Regex: `^INV-\d+$`}},
		{Key: "hidden", Label: "Hidden", Type: model.FieldText, Visible: false, Required: true},
	}

	t.Run("valid submission", func(t *testing.T) {
		values, errs := Validate(fields, map[string]string{
			"amount":  " 42.5 ",
			"paid":    "true",
			"invoice": "INV-123",
		})
		require.Empty(t, errs)
		assert.Equal(t, 42.5, values["amount"].Number())
		assert.True(t, values["paid"].Bool())
		assert.Equal(t, "INV-123", values["invoice"].Text())
	})

	t.Run("required empty field reports label", func(t *testing.T) {
		_, errs := Validate(fields, map[string]string{})
		require.Len(t, errs, 1)
		assert.Equal(t, "Amount", errs[0].Label)
		assert.Equal(t, "is required", errs[0].Message)
	})

	t.Run("number range", func(t *testing.T) {
		_, errs := Validate(fields, map[string]string{"amount": "2000"})
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "at most")

		_, errs = Validate(fields, map[string]string{"amount": "-1"})
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "at least")

		_, errs = Validate(fields, map[string]string{"amount": "abc"})
		require.Len(t, errs, 1)
		assert.Equal(t, "must be a number", errs[0].Message)
	})

	t.Run("checkbox rejects non-bool", func(t *testing.T) {
		_, errs := Validate(fields, map[string]string{"amount": "1", "paid": "maybe"})
		require.Len(t, errs, 1)
		assert.Equal(t, "Paid", errs[0].Label)
	})

	t.Run("regex mismatch", func(t *testing.T) {
		_, errs := Validate(fields, map[string]string{"amount": "1", "invoice": "nope"})
		require.Len(t, errs, 1)
		assert.Equal(t, "invalid format", errs[0].Message)
	})

	t.Run("invisible fields are skipped entirely", func(t *testing.T) {
		values, errs := Validate(fields, map[string]string{"amount": "1", "hidden": "x"})
		require.Empty(t, errs)
		_, present := values["hidden"]
		assert.False(t, present)
	})

	t.Run("optional empty field collects nothing", func(t *testing.T) {
		values, errs := Validate(fields, map[string]string{"amount": "1", "invoice": "  "})
		require.Empty(t, errs)
		_, present := values["invoice"]
		assert.False(t, present)
	})
}

func TestCoerceValue(t *testing.T) {
	val, err := CoerceValue(model.FieldConfig{Type: model.FieldNumber}, "3.25")
	require.NoError(t, err)
	assert.Equal(t, 3.25, val.Number())

	val, err = CoerceValue(model.FieldConfig{Type: model.FieldDropdown}, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", val.Text())
}

func TestBuildTransaction(t *testing.T) {
	book := &model.Book{
		ID:       "book_test",
		Currency: "USD",
		FieldConfig: []model.FieldConfig{
			{Key: "amount", Label: "Amount", Type: model.FieldNumber, Visible: true},
			{Key: "date", Label: "Date", Type: model.FieldDate, Visible: true},
			{Key: "description", Label: "Description", Type: model.FieldText, Visible: true},
			{Key: "vendor", Label: "Vendor", Type: model.FieldText, Visible: true},
		},
	}

	t.Run("defaults", func(t *testing.T) {
		txn, err := BuildTransaction(book, map[string]model.Value{
			"amount": model.Number(10),
		}, "alice")
		require.NoError(t, err)
		assert.Equal(t, model.TypeExpense, txn.Type)
		assert.Equal(t, "uncategorized", txn.CategoryID)
		assert.Equal(t, "cash", txn.PaymentMode)
		assert.Equal(t, "alice", txn.CreatedBy)
		assert.Equal(t, "book_test", txn.BookID)
		assert.NotEmpty(t, txn.ID)
		assert.False(t, txn.TxnDate.IsZero(), "zero date defaults to today")
		assert.False(t, txn.RecordedAt.IsZero())
	})

	t.Run("custom fields routed to custom data", func(t *testing.T) {
		txn, err := BuildTransaction(book, map[string]model.Value{
			"amount": model.Number(25),
			"date":   model.Text("2025-03-14"),
			"vendor": model.Text("Acme"),
		}, "alice")
		require.NoError(t, err)
		assert.Equal(t, 25.0, txn.Amount)
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), txn.TxnDate)
		assert.Equal(t, "Acme", txn.CustomData["vendor"].Text())
		_, present := txn.CustomData["amount"]
		assert.False(t, present, "fixed columns never land in custom data")
	})

	t.Run("book preference overrides default type", func(t *testing.T) {
		prefBook := *book
		prefBook.Preferences = &model.Preferences{DefaultType: model.TypeIncome}
		txn, err := BuildTransaction(&prefBook, nil, "alice")
		require.NoError(t, err)
		assert.Equal(t, model.TypeIncome, txn.Type)
	})

	t.Run("renamed description field still maps", func(t *testing.T) {
		remarkBook := *book
		remarkBook.FieldConfig = []model.FieldConfig{
			{Key: "amount", Type: model.FieldNumber, Visible: true},
			{Key: "remark", Label: "Remark", Type: model.FieldText, Visible: true},
		}
		txn, err := BuildTransaction(&remarkBook, map[string]model.Value{
			"remark": model.Text("lunch"),
		}, "alice")
		require.NoError(t, err)
		assert.Equal(t, "lunch", txn.Description)
		assert.Empty(t, txn.CustomData)
	})

	t.Run("invalid date is rejected", func(t *testing.T) {
		_, err := BuildTransaction(book, map[string]model.Value{
			"date": model.Text("14/03/2025"),
		}, "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date")
	})
}
