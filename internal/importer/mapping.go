package importer

import (
	"strings"

	"github.com/lekha-app/lekha/internal/model"
)

// Mapping targets for system fields. Anything else is an existing custom
// field key, or TargetNewField for columns that should create a field.
const (
	TargetDate        = "date"
	TargetTime        = "time"
	TargetAmountIn    = "amount_in"
	TargetAmountOut   = "amount_out"
	TargetAmountNet   = "amount_net"
	TargetDescription = "description"
	TargetCategory    = "category"
	TargetMode        = "mode"
	TargetParty       = "party"
	TargetIgnore      = "ignore"
	TargetNewField    = "create_new"
)

// ColumnMapping assigns one CSV column to a book field.
type ColumnMapping struct {
	Header        string
	SampleValue   string
	Target        string
	NewFieldLabel string
}

// GuessMappings proposes an initial column mapping from header names. An
// existing custom field whose label appears in the header wins over the
// system-field heuristics.
func GuessMappings(headers, firstRow []string, fields []model.FieldConfig) []ColumnMapping {
	mappings := make([]ColumnMapping, len(headers))

	for i, header := range headers {
		lower := strings.ToLower(strings.TrimSpace(header))
		target := TargetIgnore

		switch {
		case strings.Contains(lower, "date"):
			target = TargetDate
		case strings.Contains(lower, "time"):
			target = TargetTime
		case headerContainsAny(lower, "remark", "desc", "narration"):
			target = TargetDescription
		case strings.Contains(lower, "category"):
			target = TargetCategory
		case headerContainsAny(lower, "party", "payee"):
			target = TargetParty
		case headerContainsAny(lower, "mode", "type"):
			target = TargetMode
		case headerContainsAny(lower, "credit", "deposit", "in") || lower == "cash in":
			target = TargetAmountIn
		case headerContainsAny(lower, "debit", "withdrawal", "out") || lower == "cash out":
			target = TargetAmountOut
		case headerContainsAny(lower, "amount", "balance"):
			target = TargetAmountNet
		}

		for _, f := range fields {
			if f.Label != "" && strings.Contains(lower, strings.ToLower(f.Label)) {
				target = f.Key
				break
			}
		}

		var sample string
		if i < len(firstRow) {
			sample = firstRow[i]
		}

		mappings[i] = ColumnMapping{
			Header:      header,
			SampleValue: sample,
			Target:      target,
		}
	}

	return mappings
}
