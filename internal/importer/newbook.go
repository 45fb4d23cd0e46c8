package importer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/schema"
	"github.com/lekha-app/lekha/internal/service"
)

// AmountMode selects how a new-book import derives transaction amounts.
type AmountMode string

const (
	// AmountSingle uses one signed/primary numeric column.
	AmountSingle AmountMode = "single"
	// AmountSplit uses separate income and expense columns.
	AmountSplit AmountMode = "split"
)

// DetectedField is one CSV column with its inferred schema configuration.
type DetectedField struct {
	Header       string
	Key          string
	Label        string
	Type         model.FieldType
	SampleValue  string
	UniqueValues []string
	Options      []string
	Include      bool
}

// NewBookOptions configures a create-new-book import.
type NewBookOptions struct {
	BookName         string
	Currency         string
	PerformedBy      string
	AmountMode       AmountMode
	PrimaryAmountKey string
	IncomeKey        string
	ExpenseKey       string
	TimeKey          string
	Fields           []DetectedField
}

// DetectFields analyzes every CSV column and proposes a schema for it.
func DetectFields(rows [][]string) []DetectedField {
	headers := rows[0]
	firstRow := rows[1]

	fields := make([]DetectedField, len(headers))
	for i, header := range headers {
		analysis := AnalyzeColumn(rows, i)
		var sample string
		if i < len(firstRow) {
			sample = firstRow[i]
		}

		t := InferFieldType(header, analysis, len(rows))
		var options []string
		if t == model.FieldDropdown {
			options = analysis.UniqueValues
		}

		fields[i] = DetectedField{
			Header:       header,
			Key:          schema.KeyFromLabel(header),
			Label:        header,
			Type:         t,
			SampleValue:  sample,
			UniqueValues: analysis.UniqueValues,
			Options:      options,
			Include:      true,
		}
	}
	return fields
}

// AutoDetect fills unset option keys from field labels: the primary amount
// column, income/expense split columns, and a time column.
func (o *NewBookOptions) AutoDetect(fields []DetectedField) {
	findNumber := func(fragments ...string) string {
		for _, f := range fields {
			if f.Type == model.FieldNumber && headerContainsAny(f.Label, fragments...) {
				return f.Key
			}
		}
		return ""
	}

	if o.PrimaryAmountKey == "" {
		o.PrimaryAmountKey = findNumber("amount", "cost", "price")
	}
	if o.PrimaryAmountKey == "" {
		for _, f := range fields {
			if f.Type == model.FieldNumber {
				o.PrimaryAmountKey = f.Key
				break
			}
		}
	}

	if o.IncomeKey == "" {
		o.IncomeKey = findNumber("income", "credit", "deposit", "in")
	}
	if o.ExpenseKey == "" {
		o.ExpenseKey = findNumber("expense", "debit", "withdrawal", "out")
	}

	if o.TimeKey == "" {
		for _, f := range fields {
			if f.Type == model.FieldText && headerContainsAny(f.Label, "time", "hour", "clock") {
				o.TimeKey = f.Key
				break
			}
		}
	}
}

// NewBookImporter creates a brand-new book whose schema is inferred from the
// CSV, then imports every row. Rows with an unparseable date fall back to
// today rather than being skipped; this policy deliberately differs from
// BookImporter.
type NewBookImporter struct {
	Store service.BookStore
}

// Run builds the book, persists it, and imports all data rows. Returns the
// created book alongside the import result.
func (imp *NewBookImporter) Run(ctx context.Context, rows [][]string, opts NewBookOptions, progress ProgressFunc) (*model.Book, Result, error) {
	var res Result

	if len(rows) < 2 {
		return nil, res, common.ErrEmptyCSV
	}
	if strings.TrimSpace(opts.BookName) == "" {
		return nil, res, common.NewUserError("book name is required", nil)
	}
	if opts.AmountMode == "" {
		opts.AmountMode = AmountSingle
	}

	book := buildBook(opts)
	if err := imp.Store.CreateBook(ctx, book); err != nil {
		return nil, res, fmt.Errorf("failed to create book: %w", err)
	}

	dateIndex := -1
	for i, f := range opts.Fields {
		if f.Include && f.Type == model.FieldDate {
			dateIndex = i
			break
		}
	}
	timeIndex := -1
	for i, f := range opts.Fields {
		if f.Key == opts.TimeKey {
			timeIndex = i
			break
		}
	}

	dataRows := rows[1:]
	total := len(dataRows)

	for i, row := range dataRows {
		if len(row) == 0 {
			continue
		}

		txn := imp.buildRow(book, row, opts, dateIndex, timeIndex)
		if err := imp.Store.CreateTransaction(ctx, txn); err != nil {
			return book, res, fmt.Errorf("failed to import row %d: %w", i+2, err)
		}
		res.Created++

		if progress != nil && i%ProgressInterval == 0 {
			progress(i+1, total)
		}
	}

	if progress != nil {
		progress(total, total)
	}
	return book, res, nil
}

// buildBook assembles the new book's schema: date first, amount last, the
// rest in CSV order, then dense-normalized. Split amount columns and the time
// column never enter the schema; split mode gets a synthetic required amount
// field instead.
func buildBook(opts NewBookOptions) *model.Book {
	var dateKey string
	for _, f := range opts.Fields {
		if f.Include && f.Type == model.FieldDate {
			dateKey = f.Key
			break
		}
	}

	var fields []model.FieldConfig
	position := 0
	for _, f := range opts.Fields {
		if !f.Include {
			continue
		}
		if opts.AmountMode == AmountSplit && (f.Key == opts.IncomeKey || f.Key == opts.ExpenseKey) {
			continue
		}
		if f.Key == opts.TimeKey {
			continue
		}

		order := position + 2
		if f.Key == dateKey {
			order = 1
		}
		if opts.AmountMode == AmountSingle && f.Key == opts.PrimaryAmountKey {
			order = 100
		}
		position++

		fields = append(fields, model.FieldConfig{
			Key:       f.Key,
			Label:     f.Label,
			Type:      f.Type,
			Visible:   true,
			Order:     order,
			Options:   f.Options,
			Multiline: headerContainsAny(f.Label, "description", "remark", "note", "address", "comment"),
		})
	}

	if opts.AmountMode == AmountSplit {
		fields = append(fields, model.FieldConfig{
			Key:      "amount",
			Label:    "Amount",
			Type:     model.FieldNumber,
			Required: true,
			Visible:  true,
			Order:    100,
		})
	}

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })
	schema.Normalize(fields)

	primary := opts.PrimaryAmountKey
	if opts.AmountMode == AmountSplit {
		primary = "amount"
	}

	return &model.Book{
		ID:                 model.NewBookID(),
		Name:               opts.BookName,
		Currency:           opts.Currency,
		CreatedAt:          time.Now().UTC(),
		FieldConfig:        fields,
		PrimaryAmountField: primary,
	}
}

func (imp *NewBookImporter) buildRow(book *model.Book, row []string, opts NewBookOptions, dateIndex, timeIndex int) *model.Transaction {
	now := time.Now().UTC()
	txn := &model.Transaction{
		ID:          model.NewTransactionID(),
		BookID:      book.ID,
		Type:        model.TypeExpense,
		Description: "Imported",
		TxnDate:     now.Truncate(24 * time.Hour),
		CustomData:  make(map[string]model.Value),
		CreatedBy:   opts.PerformedBy,
		RecordedAt:  now,
	}

	for col, field := range opts.Fields {
		if !field.Include || col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}

		if field.Type == model.FieldNumber {
			num := CleanNumber(value)
			// Split income/expense columns and the time column are excluded
			// from the book's schema, so their values must not land in custom
			// data either.
			splitColumn := opts.AmountMode == AmountSplit && (field.Key == opts.IncomeKey || field.Key == opts.ExpenseKey)
			if !splitColumn && field.Key != opts.TimeKey {
				txn.CustomData[field.Key] = model.Number(num)
			}

			if opts.AmountMode == AmountSingle && field.Key == opts.PrimaryAmountKey {
				txn.Amount = math.Abs(num)
				// The column's own header decides the direction.
				if headerContainsAny(field.Label, "credit", "income", "deposit") {
					txn.Type = model.TypeIncome
				} else if headerContainsAny(field.Label, "debit", "expense", "withdrawal") {
					txn.Type = model.TypeExpense
				}
			}

			if opts.AmountMode == AmountSplit {
				if field.Key == opts.IncomeKey && num > 0 {
					txn.Amount = math.Abs(num)
					txn.Type = model.TypeIncome
					txn.CustomData["amount"] = model.Number(math.Abs(num))
				} else if field.Key == opts.ExpenseKey && num > 0 {
					txn.Amount = math.Abs(num)
					txn.Type = model.TypeExpense
					txn.CustomData["amount"] = model.Number(math.Abs(num))
				}
			}
		} else if opts.AmountMode != AmountSplit || (field.Key != opts.IncomeKey && field.Key != opts.ExpenseKey) {
			if field.Key != opts.TimeKey {
				txn.CustomData[field.Key] = model.Text(value)
			}
		}

		if field.Type == model.FieldDate {
			if parsed, ok := ParseFlexibleDate(value); ok {
				if col == dateIndex {
					txn.TxnDate = parsed
					if timeIndex >= 0 && timeIndex < len(row) {
						if tv := strings.TrimSpace(row[timeIndex]); tv != "" {
							txn.RecordedAt = mergeTimeOfDay(parsed, tv)
						}
					}
				}
				txn.CustomData[field.Key] = model.Text(parsed.Format(model.DateLayout))
			}
		}

		if field.Type == model.FieldText && headerContainsAny(field.Label, "description", "narration", "remark") {
			txn.Description = value
		}
	}

	return txn
}
