// Package model defines the core data types shared across the application.
package model

// FieldType enumerates the kinds of values a schema field can hold.
type FieldType string

const (
	// FieldText holds free-form text, optionally multiline.
	FieldText FieldType = "text"
	// FieldNumber holds a numeric value.
	FieldNumber FieldType = "number"
	// FieldDate holds a calendar date.
	FieldDate FieldType = "date"
	// FieldDropdown holds one of a fixed list of options.
	FieldDropdown FieldType = "dropdown"
	// FieldCheckbox holds a boolean.
	FieldCheckbox FieldType = "checkbox"
	// FieldFile holds an attachment reference.
	FieldFile FieldType = "file"
)

// Validation holds optional per-field constraints.
type Validation struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Regex string   `json:"regex,omitempty"`
}

// FieldConfig is one entry in a book's transaction schema.
type FieldConfig struct {
	Validation *Validation `json:"validation,omitempty"`
	Key        string      `json:"key"`
	Label      string      `json:"label"`
	Type       FieldType   `json:"type"`
	Options    []string    `json:"options,omitempty"`
	Order      int         `json:"order"`
	Visible    bool        `json:"visible"`
	Required   bool        `json:"required"`
	Multiline  bool        `json:"multiline,omitempty"`
}

// CoreFieldKeys are the conventionally protected schema keys. Protection is a
// schema-layer convention, not a storage constraint.
var CoreFieldKeys = []string{"amount", "date", "description"}

// IsCoreField reports whether key is one of the protected core keys.
func IsCoreField(key string) bool {
	for _, k := range CoreFieldKeys {
		if k == key {
			return true
		}
	}
	return false
}
