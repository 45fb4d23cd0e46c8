package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lekha-app/lekha/internal/model"
)

// GetAuditLogsByBook returns the audit trail for a book, newest first.
func (s *SQLiteStorage) GetAuditLogsByBook(ctx context.Context, bookID string) ([]model.AuditLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(bookID, "bookID"); err != nil {
		return nil, err
	}
	return queryAuditLogs(ctx, s.db, `book_id = ?`, bookID)
}

// GetAuditLogsByTransaction returns the audit trail for one transaction,
// newest first. Entries survive the deletion of the transaction itself.
func (s *SQLiteStorage) GetAuditLogsByTransaction(ctx context.Context, transactionID string) ([]model.AuditLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}
	return queryAuditLogs(ctx, s.db, `transaction_id = ?`, transactionID)
}

// insertAuditLog appends one entry to the audit trail. There is no update or
// delete path for audit rows.
func insertAuditLog(ctx context.Context, e execer, log model.AuditLog) error {
	changes, err := json.Marshal(log.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal audit changes: %w", err)
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO audit_logs (id, book_id, transaction_id, action, changes, performed_by, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.BookID, log.TransactionID, log.Action, string(changes), log.PerformedBy, log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

func queryAuditLogs(ctx context.Context, e execer, where string, arg any) ([]model.AuditLog, error) {
	query := `
		SELECT id, book_id, transaction_id, action, changes, performed_by, timestamp
		FROM audit_logs
		WHERE ` + where + `
		ORDER BY timestamp DESC`

	rows, err := e.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []model.AuditLog
	for rows.Next() {
		var log model.AuditLog
		var changes string
		if err := rows.Scan(&log.ID, &log.BookID, &log.TransactionID, &log.Action, &changes, &log.PerformedBy, &log.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if err := json.Unmarshal([]byte(changes), &log.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit changes: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	slog.Debug("retrieved audit logs", "count", len(logs))
	return logs, nil
}
