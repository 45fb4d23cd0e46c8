package form

import (
	"fmt"
	"time"

	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/schema"
)

// fixedColumns are submission keys written to top-level transaction
// attributes rather than custom data.
var fixedColumns = map[string]bool{
	"type":        true,
	"amount":      true,
	"date":        true,
	"description": true,
	"category":    true,
	"party":       true,
}

// BuildTransaction assembles a transaction from validated form values. Fixed
// columns land on top-level attributes; everything else is routed into custom
// data keyed by field key.
func BuildTransaction(book *model.Book, values map[string]model.Value, createdBy string) (*model.Transaction, error) {
	txn := &model.Transaction{
		ID:          model.NewTransactionID(),
		BookID:      book.ID,
		Type:        model.TypeExpense,
		CategoryID:  "uncategorized",
		PaymentMode: "cash",
		CustomData:  make(map[string]model.Value),
		CreatedBy:   createdBy,
		RecordedAt:  time.Now().UTC(),
	}

	if book.Preferences != nil && book.Preferences.DefaultType != "" {
		txn.Type = book.Preferences.DefaultType
	}

	descKey := schema.ResolveDescriptionKey(book.FieldConfig)

	for key, val := range values {
		switch {
		case key == "type":
			txn.Type = model.TransactionType(val.Text())
		case key == "amount":
			txn.Amount = val.Number()
		case key == "date":
			d, err := parseDate(val.Text())
			if err != nil {
				return nil, fmt.Errorf("invalid date %q: %w", val.Text(), err)
			}
			txn.TxnDate = d
		case key == "description" || (descKey != "" && key == descKey):
			txn.Description = val.Text()
		case key == "category":
			txn.CategoryID = val.Text()
		case key == "party":
			txn.PartyID = val.Text()
		default:
			if !fixedColumns[key] {
				txn.CustomData[key] = val
			}
		}
	}

	if txn.TxnDate.IsZero() {
		txn.TxnDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	return txn, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{model.DateLayout, time.RFC3339, "2006-01-02T15:04"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
