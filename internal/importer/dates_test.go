package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-05-08", time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), true},
		{"8-May-25", time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), true},
		{"08-May-2025", time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), true},
		{"8-MAY-25", time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), true},
		// Slash dates are always day first.
		{"31/12/2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"05/03/24", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"05-03-2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"January 2, 2006", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"  2025-05-08  ", time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), true},
		{"12/31/2023", time.Time{}, false}, // month 31 is invalid
		{"8-Mxy-25", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFlexibleDate(tt.in)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMergeTimeOfDay(t *testing.T) {
	date := time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC)

	merged := mergeTimeOfDay(date, "14:30")
	assert.Equal(t, time.Date(2025, 5, 8, 14, 30, 0, 0, time.UTC), merged)

	merged = mergeTimeOfDay(date, "09:15:42")
	assert.Equal(t, time.Date(2025, 5, 8, 9, 15, 42, 0, time.UTC), merged)

	assert.Equal(t, date, mergeTimeOfDay(date, "no time here"))
}
