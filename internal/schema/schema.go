// Package schema defines and orders a book's transaction shape.
package schema

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
)

// MoveDirection selects which neighbor a field swaps with.
type MoveDirection int

const (
	// MoveUp swaps a field with its predecessor.
	MoveUp MoveDirection = iota
	// MoveDown swaps a field with its successor.
	MoveDown
)

// NewFieldKey generates a fresh collision-resistant schema key.
func NewFieldKey() string {
	return "field_" + uuid.NewString()
}

// KeyFromLabel derives a stable key from a display label, lowercasing and
// replacing everything outside [a-z0-9] with underscores.
func KeyFromLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// AddField appends a new text field to the list with order = len+1.
func AddField(fields []model.FieldConfig, label string) []model.FieldConfig {
	if label == "" {
		label = "New Field"
	}
	return append(fields, model.FieldConfig{
		Key:     NewFieldKey(),
		Label:   label,
		Type:    model.FieldText,
		Visible: true,
		Order:   len(fields) + 1,
	})
}

// MoveField swaps the field at index with its neighbor in both array position
// and order value. Out-of-range moves are no-ops.
func MoveField(fields []model.FieldConfig, index int, dir MoveDirection) []model.FieldConfig {
	if index < 0 || index >= len(fields) {
		return fields
	}
	target := index - 1
	if dir == MoveDown {
		target = index + 1
	}
	if target < 0 || target >= len(fields) {
		return fields
	}
	fields[index], fields[target] = fields[target], fields[index]
	Normalize(fields)
	return fields
}

// Normalize re-assigns order as a dense ascending 1..N sequence matching array
// position. Consumers sort purely by order, so this must run before persisting
// any insert, delete, or move.
func Normalize(fields []model.FieldConfig) {
	for i := range fields {
		fields[i].Order = i + 1
	}
}

// DeleteField removes the field at index. Core keys (amount, date,
// description) are rejected with a user-facing error unless force is set.
func DeleteField(fields []model.FieldConfig, index int, force bool) ([]model.FieldConfig, error) {
	if index < 0 || index >= len(fields) {
		return fields, nil
	}
	if !force && model.IsCoreField(fields[index].Key) {
		return fields, common.NewUserError("cannot delete core system field "+fields[index].Key, nil)
	}
	out := append(fields[:index:index], fields[index+1:]...)
	Normalize(out)
	return out, nil
}

// ResolveDescriptionKey finds the schema key that carries the description
// concept. Templates name it differently, so resolution walks a fixed priority
// chain: exact key "description", exact key "remark", then case-insensitive
// label matches in the same order.
func ResolveDescriptionKey(fields []model.FieldConfig) string {
	for _, f := range fields {
		if f.Key == "description" {
			return f.Key
		}
	}
	for _, f := range fields {
		if f.Key == "remark" {
			return f.Key
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.Label, "description") {
			return f.Key
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.Label, "remark") {
			return f.Key
		}
	}
	return ""
}

// Sorted returns a copy of fields ordered by their order value.
func Sorted(fields []model.FieldConfig) []model.FieldConfig {
	out := make([]model.FieldConfig, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
