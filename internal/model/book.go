package model

import (
	"time"

	"github.com/google/uuid"
)

// Preferences holds per-book display and entry defaults.
type Preferences struct {
	DateFormat       string          `json:"date_format,omitempty"`
	DefaultType      TransactionType `json:"default_type,omitempty"`
	DefaultCategory  string          `json:"default_category,omitempty"`
	DecimalPlaces    int             `json:"decimal_places,omitempty"`
	ShowZeroDecimals bool            `json:"show_zero_decimals,omitempty"`
}

// Book is a named ledger with its own transaction schema and currency.
type Book struct {
	CreatedAt          time.Time     `json:"created_at"`
	Preferences        *Preferences  `json:"preferences,omitempty"`
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Currency           string        `json:"currency"`
	PrimaryAmountField string        `json:"primary_amount_field,omitempty"`
	FieldConfig        []FieldConfig `json:"field_config"`
}

// NewBookID returns a fresh book identifier.
func NewBookID() string {
	return "book_" + uuid.NewString()
}

// AmountFieldKey returns the schema key used for dashboard and report totals,
// falling back to the built-in amount column.
func (b *Book) AmountFieldKey() string {
	if b.PrimaryAmountField != "" {
		return b.PrimaryAmountField
	}
	return "amount"
}

// FieldByKey returns the schema entry for key, or nil if absent.
func (b *Book) FieldByKey(key string) *FieldConfig {
	for i := range b.FieldConfig {
		if b.FieldConfig[i].Key == key {
			return &b.FieldConfig[i]
		}
	}
	return nil
}

// FieldTemplate is a reusable named schema bundle usable to seed new books.
// System templates carry IsDefault and cannot be deleted.
type FieldTemplate struct {
	CreatedAt   time.Time     `json:"created_at"`
	Preferences *Preferences  `json:"preferences,omitempty"`
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	FieldConfig []FieldConfig `json:"field_config"`
	IsDefault   bool          `json:"is_default,omitempty"`
}

// NewTemplateID returns a fresh template identifier.
func NewTemplateID() string {
	return "tpl_" + uuid.NewString()
}
