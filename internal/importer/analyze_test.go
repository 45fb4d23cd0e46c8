package importer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lekha-app/lekha/internal/model"
)

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"100", 100},
		{"$1,234.56", 1234.56},
		{"₹ 2,500", 2500},
		{"-42.5", -42.5},
		{"(no digits)", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanNumber(tt.in), "input %q", tt.in)
	}
}

func TestAnalyzeColumn(t *testing.T) {
	rows := [][]string{
		{"date", "amount", "vendor"},
		{"2025-01-01", "10.50", "Acme"},
		{"2025-01-02", "$20", ""},
		{"2025-01-03", "30", "Acme"},
	}

	dates := AnalyzeColumn(rows, 0)
	assert.Equal(t, model.FieldDate, dates.Type)

	amounts := AnalyzeColumn(rows, 1)
	assert.Equal(t, model.FieldNumber, amounts.Type)

	vendors := AnalyzeColumn(rows, 2)
	assert.Equal(t, model.FieldText, vendors.Type)
	assert.True(t, vendors.HasEmpty)
	assert.Equal(t, []string{"Acme"}, vendors.UniqueValues)
}

func TestInferFieldType(t *testing.T) {
	t.Run("few distinct values over many rows becomes dropdown", func(t *testing.T) {
		rows := [][]string{{"mode"}}
		for i := 0; i < 25; i++ {
			rows = append(rows, []string{[]string{"Cash", "Card", "UPI"}[i%3]})
		}
		analysis := AnalyzeColumn(rows, 0)
		assert.Equal(t, model.FieldDropdown, InferFieldType("mode", analysis, len(rows)))
	})

	t.Run("small files never get dropdowns", func(t *testing.T) {
		rows := [][]string{{"mode"}}
		for i := 0; i < 10; i++ {
			rows = append(rows, []string{[]string{"Cash", "Card"}[i%2]})
		}
		analysis := AnalyzeColumn(rows, 0)
		assert.Equal(t, model.FieldText, InferFieldType("mode", analysis, len(rows)))
	})

	t.Run("too many distinct values stays text", func(t *testing.T) {
		rows := [][]string{{"vendor"}}
		for i := 0; i < 30; i++ {
			rows = append(rows, []string{fmt.Sprintf("Vendor %c%c", 'A'+i/26, 'A'+i%26)})
		}
		analysis := AnalyzeColumn(rows, 0)
		assert.Equal(t, model.FieldText, InferFieldType("vendor", analysis, len(rows)))
	})

	t.Run("header name overrides statistics", func(t *testing.T) {
		// Numeric-looking values under a description header stay text.
		rows := [][]string{{"description"}, {"123"}, {"456"}}
		analysis := AnalyzeColumn(rows, 0)
		assert.Equal(t, model.FieldText, InferFieldType("description", analysis, len(rows)))

		// Mixed values under an amount header are forced to number.
		rows = [][]string{{"amount"}, {"10"}, {"n/a"}}
		analysis = AnalyzeColumn(rows, 0)
		assert.Equal(t, model.FieldNumber, InferFieldType("amount", analysis, len(rows)))
	})
}

func TestGuessMappings(t *testing.T) {
	headers := []string{"Date", "Narration", "Debit", "Credit", "Mode", "Weight"}
	firstRow := []string{"2025-01-01", "groceries", "50", "", "Cash", "2.5"}
	fields := []model.FieldConfig{
		{Key: "field_weight", Label: "Weight", Type: model.FieldNumber},
	}

	mappings := GuessMappings(headers, firstRow, fields)

	targets := make([]string, len(mappings))
	for i, m := range mappings {
		targets[i] = m.Target
	}
	assert.Equal(t, []string{
		TargetDate, TargetDescription, TargetAmountOut, TargetAmountIn, TargetMode, "field_weight",
	}, targets)
	assert.Equal(t, "2025-01-01", mappings[0].SampleValue)
	assert.Equal(t, "Narration", mappings[1].Header)
}
