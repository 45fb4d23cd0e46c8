package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of mutation an audit entry records.
type AuditAction string

const (
	// ActionCreate records a transaction creation.
	ActionCreate AuditAction = "create"
	// ActionUpdate records a transaction update.
	ActionUpdate AuditAction = "update"
	// ActionDelete records a transaction deletion.
	ActionDelete AuditAction = "delete"
)

// FieldChange is one field-level difference captured by an update.
type FieldChange struct {
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
	Field    string `json:"field"`
}

// AuditLog is an immutable record of one mutating transaction operation.
// Entries are never modified after creation.
type AuditLog struct {
	Timestamp     time.Time     `json:"timestamp"`
	ID            string        `json:"id"`
	BookID        string        `json:"book_id"`
	TransactionID string        `json:"transaction_id"`
	Action        AuditAction   `json:"action"`
	PerformedBy   string        `json:"performed_by"`
	Changes       []FieldChange `json:"changes"`
}

// NewAuditLog builds a log entry for a mutation against txn.
func NewAuditLog(action AuditAction, txn *Transaction, changes []FieldChange) AuditLog {
	performedBy := txn.CreatedBy
	if performedBy == "" {
		performedBy = "system"
	}
	if changes == nil {
		changes = []FieldChange{}
	}
	return AuditLog{
		ID:            "log_" + uuid.NewString(),
		BookID:        txn.BookID,
		TransactionID: txn.ID,
		Action:        action,
		Changes:       changes,
		PerformedBy:   performedBy,
		Timestamp:     time.Now().UTC(),
	}
}
