package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType indicates the direction of a ledger entry.
type TransactionType string

const (
	// TypeIncome is money coming in.
	TypeIncome TransactionType = "income"
	// TypeExpense is money going out.
	TypeExpense TransactionType = "expense"
	// TypeTransfer is money moved between books or accounts.
	TypeTransfer TransactionType = "transfer"
)

// DateLayout is the canonical storage format for transaction dates.
const DateLayout = "2006-01-02"

// Transaction is one ledger entry. Amount is always non-negative; the sign is
// implied by Type. TxnDate is the calendar date the transaction occurred on,
// RecordedAt the timestamp it was entered.
type Transaction struct {
	TxnDate     time.Time        `json:"date"`
	RecordedAt  time.Time        `json:"recorded_at"`
	CustomData  map[string]Value `json:"custom_data,omitempty"`
	ID          string           `json:"id"`
	BookID      string           `json:"book_id"`
	Type        TransactionType  `json:"type"`
	Description string           `json:"description"`
	CategoryID  string           `json:"category_id"`
	PartyID     string           `json:"party_id,omitempty"`
	PaymentMode string           `json:"payment_mode,omitempty"`
	CreatedBy   string           `json:"created_by,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Attachments []string         `json:"attachments,omitempty"`
	Amount      float64          `json:"amount"`
}

// NewTransactionID returns a fresh transaction identifier.
func NewTransactionID() string {
	return "tx_" + uuid.NewString()
}

// DateString returns the transaction date in canonical YYYY-MM-DD form.
func (t *Transaction) DateString() string {
	return t.TxnDate.Format(DateLayout)
}

// Month returns the YYYY-MM bucket the transaction falls into.
func (t *Transaction) Month() string {
	return t.TxnDate.Format("2006-01")
}
