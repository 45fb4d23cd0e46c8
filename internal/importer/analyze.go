package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lekha-app/lekha/internal/model"
)

const (
	// maxUniqueValues caps the distinct values sampled per column to bound
	// memory on large files.
	maxUniqueValues = 100
	// dropdownMaxOptions is the largest distinct-value count that still
	// qualifies a text column for dropdown reclassification.
	dropdownMaxOptions = 20
	// dropdownMinRows is the row count a file must exceed before the dropdown
	// heuristic applies.
	dropdownMinRows = 20
)

var nonNumericRe = regexp.MustCompile(`[^0-9.-]+`)

// CleanNumber strips everything except digits, dots, and minus signs, then
// parses the remainder as a float. Returns 0 when nothing numeric is left.
func CleanNumber(s string) float64 {
	clean := nonNumericRe.ReplaceAllString(s, "")
	if clean == "" {
		return 0
	}
	n, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return n
}

// isNumeric reports whether s parses as a finite float after stripping
// non-numeric characters.
func isNumeric(s string) bool {
	clean := nonNumericRe.ReplaceAllString(s, "")
	if clean == "" {
		return false
	}
	_, err := strconv.ParseFloat(clean, 64)
	return err == nil
}

// ColumnAnalysis is the statistical classification of one CSV column.
type ColumnAnalysis struct {
	Type         model.FieldType
	UniqueValues []string
	HasEmpty     bool
}

// AnalyzeColumn classifies a column over a bounded sample of its values:
// date if every non-empty value parses under the flexible date grammar,
// else number if every non-empty value parses numerically, else text.
func AnalyzeColumn(rows [][]string, columnIndex int) ColumnAnalysis {
	isNumber := true
	isDate := true
	hasEmpty := false
	seen := make(map[string]bool)
	var uniqueValues []string

	for _, row := range rows[1:] {
		var value string
		if columnIndex < len(row) {
			value = strings.TrimSpace(row[columnIndex])
		}
		if value == "" {
			hasEmpty = true
			continue
		}

		if len(uniqueValues) < maxUniqueValues && !seen[value] {
			seen[value] = true
			uniqueValues = append(uniqueValues, value)
		}

		if isNumber && !isNumeric(value) {
			isNumber = false
		}
		if isDate {
			if _, ok := ParseFlexibleDate(value); !ok {
				isDate = false
			}
		}

		if !isNumber && !isDate && len(uniqueValues) >= maxUniqueValues {
			break
		}
	}

	colType := model.FieldText
	if isDate {
		colType = model.FieldDate
	} else if isNumber {
		colType = model.FieldNumber
	}

	return ColumnAnalysis{
		Type:         colType,
		UniqueValues: uniqueValues,
		HasEmpty:     hasEmpty,
	}
}

// headerContainsAny reports whether the lowercased header contains any of the
// given fragments.
func headerContainsAny(header string, fragments ...string) bool {
	lower := strings.ToLower(header)
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// InferFieldType refines a column's statistical classification with
// header-name heuristics and the dropdown reclassification rule. totalRows is
// the full CSV row count including the header.
func InferFieldType(header string, analysis ColumnAnalysis, totalRows int) model.FieldType {
	t := analysis.Type

	// Header names override the statistical inference.
	if headerContainsAny(header, "description", "remark", "narration") {
		t = model.FieldText
	}
	if headerContainsAny(header, "amount", "debit", "credit", "balance", "cost", "price") {
		t = model.FieldNumber
	}

	if t == model.FieldText && len(analysis.UniqueValues) <= dropdownMaxOptions && totalRows > dropdownMinRows {
		t = model.FieldDropdown
	}

	return t
}
