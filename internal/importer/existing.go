package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/schema"
	"github.com/lekha-app/lekha/internal/service"
)

// ProgressInterval is the row cadence at which progress is reported.
const ProgressInterval = 10

// ProgressFunc receives (processed, total) at a fixed cadence during import.
type ProgressFunc func(processed, total int)

// Result summarizes a finished import.
type Result struct {
	Created int
	Skipped int
}

// BookImporter maps CSV rows onto an existing book's schema. Rows with an
// unparseable date are skipped with a diagnostic; the rest of the import
// proceeds. This skip-row policy is distinct from NewBookImporter's
// default-to-today policy and the two are intentionally kept separate.
type BookImporter struct {
	Store       service.BookStore
	PerformedBy string
}

// Run imports rows into book according to mappings. Columns mapped to
// TargetNewField cause fresh schema fields to be appended and persisted
// before any transaction row is written, so rows can reference the new keys.
// Import is not atomic across rows.
func (imp *BookImporter) Run(ctx context.Context, book *model.Book, rows [][]string, mappings []ColumnMapping, progress ProgressFunc) (Result, error) {
	var res Result

	if len(rows) < 2 {
		return res, common.ErrEmptyCSV
	}
	if !hasDateMapping(mappings) {
		return res, common.ErrNoDateColumn
	}

	if err := imp.createNewFields(ctx, book, mappings); err != nil {
		return res, err
	}

	dataRows := rows[1:]
	total := len(dataRows)

	for i, row := range dataRows {
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}

		txn, ok := imp.buildRow(book, row, mappings)
		if !ok {
			slog.Warn("row skipped: no valid date found", "row", i+2)
			res.Skipped++
			continue
		}

		if err := imp.Store.CreateTransaction(ctx, txn); err != nil {
			return res, fmt.Errorf("failed to import row %d: %w", i+2, err)
		}
		res.Created++

		if progress != nil && i%ProgressInterval == 0 {
			progress(i+1, total)
		}
	}

	if progress != nil {
		progress(total, total)
	}
	return res, nil
}

// hasDateMapping reports whether any column is mapped to the date target.
// Imports without one would skip every row, so they are rejected up front.
func hasDateMapping(mappings []ColumnMapping) bool {
	for _, m := range mappings {
		if m.Target == TargetDate {
			return true
		}
	}
	return false
}

// createNewFields appends a text field for every create_new mapping and
// persists the schema change, rewriting each mapping's target to the
// generated key.
func (imp *BookImporter) createNewFields(ctx context.Context, book *model.Book, mappings []ColumnMapping) error {
	changed := false
	for i := range mappings {
		if mappings[i].Target != TargetNewField {
			continue
		}
		label := mappings[i].NewFieldLabel
		if label == "" {
			label = mappings[i].Header
		}
		field := model.FieldConfig{
			Key:     schema.NewFieldKey(),
			Label:   label,
			Type:    model.FieldText,
			Visible: true,
			Order:   len(book.FieldConfig) + 1,
		}
		book.FieldConfig = append(book.FieldConfig, field)
		mappings[i].Target = field.Key
		changed = true
	}

	if !changed {
		return nil
	}
	if err := imp.Store.PutBook(ctx, book); err != nil {
		return fmt.Errorf("failed to save new fields: %w", err)
	}
	return nil
}

// buildRow assembles one transaction from a CSV row. Returns false when the
// row has no parseable date.
func (imp *BookImporter) buildRow(book *model.Book, row []string, mappings []ColumnMapping) (*model.Transaction, bool) {
	txn := &model.Transaction{
		ID:         model.NewTransactionID(),
		BookID:     book.ID,
		CustomData: make(map[string]model.Value),
		CreatedBy:  imp.PerformedBy,
		RecordedAt: time.Now().UTC(),
	}

	var amountIn, amountOut float64
	dateFound := false

	for col, mapping := range mappings {
		if mapping.Target == TargetIgnore || col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}

		switch mapping.Target {
		case TargetDate:
			if d, ok := ParseFlexibleDate(value); ok {
				txn.TxnDate = d
				dateFound = true
			}
		case TargetTime:
			// Not folded into the date on this path.
		case TargetDescription:
			txn.Description = value
		case TargetCategory:
			txn.CategoryID = value
		case TargetMode:
			txn.PaymentMode = value
		case TargetParty:
			txn.PartyID = value
		case TargetAmountIn:
			amountIn = CleanNumber(value)
		case TargetAmountOut:
			amountOut = CleanNumber(value)
		case TargetAmountNet:
			net := CleanNumber(value)
			if net >= 0 {
				amountIn = net
			} else {
				amountOut = -net
			}
		default:
			txn.CustomData[mapping.Target] = model.Text(value)
		}
	}

	if !dateFound {
		return nil, false
	}

	resolveAmount(txn, amountIn, amountOut)
	applyImportDefaults(txn)
	return txn, true
}

// resolveAmount decides the transaction type from the reconciled in/out
// amounts. Both-present resolves to income.
func resolveAmount(txn *model.Transaction, amountIn, amountOut float64) {
	switch {
	case amountIn > 0 && amountOut == 0:
		txn.Type = model.TypeIncome
		txn.Amount = amountIn
	case amountOut > 0 && amountIn == 0:
		txn.Type = model.TypeExpense
		txn.Amount = amountOut
	case amountIn > 0 && amountOut > 0:
		txn.Type = model.TypeIncome
		txn.Amount = amountIn
	default:
		txn.Type = model.TypeExpense
		txn.Amount = 0
	}
}

// applyImportDefaults fills required fields a CSV may not carry.
func applyImportDefaults(txn *model.Transaction) {
	if txn.CategoryID == "" {
		txn.CategoryID = "Uncategorized"
	}
	if txn.PaymentMode == "" {
		txn.PaymentMode = "Cash"
	}
	if txn.Description == "" {
		txn.Description = "Imported Transaction"
	}
}
