package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
	"github.com/lekha-app/lekha/internal/service"
)

// CreateTransaction inserts a transaction and its audit entry atomically.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return createTransaction(ctx, tx, txn)
	})
}

// UpdateTransaction replaces a transaction and records a field-level diff in
// the audit log within the same storage transaction.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return updateTransaction(ctx, tx, txn)
	})
}

// DeleteTransaction removes a transaction and records the deletion in the
// audit log within the same storage transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return deleteTransaction(ctx, tx, id, "")
	})
}

// GetTransaction returns one transaction by ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransaction(ctx, s.db, id)
}

// GetTransactionsByBook returns all transactions for a book, newest first.
func (s *SQLiteStorage) GetTransactionsByBook(ctx context.Context, bookID string) ([]model.Transaction, error) {
	return s.GetTransactionsByBookFiltered(ctx, bookID, service.TransactionFilter{})
}

// GetTransactionsByBookFiltered returns transactions for a book matching the
// given date range and pagination options, newest first.
func (s *SQLiteStorage) GetTransactionsByBookFiltered(ctx context.Context, bookID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransactionsByBook(ctx, s.db, bookID, filter)
}

// withTx runs fn inside a transaction, committing on success.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func createTransaction(ctx context.Context, e execer, txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}

	book, err := getBook(ctx, e, txn.BookID)
	if err != nil {
		return err
	}
	if err := validateTransaction(txn, book); err != nil {
		return err
	}

	if txn.RecordedAt.IsZero() {
		txn.RecordedAt = time.Now()
	}

	tags, attachments, custom, err := marshalTransactionColumns(txn)
	if err != nil {
		return err
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO transactions (id, book_id, type, amount, txn_date, description,
			category_id, party_id, payment_mode, tags, attachments, custom_data,
			created_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.BookID, txn.Type, txn.Amount, txn.DateString(), txn.Description,
		txn.CategoryID, txn.PartyID, txn.PaymentMode, tags, attachments, custom,
		txn.CreatedBy, txn.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	log := model.NewAuditLog(model.ActionCreate, txn, nil)
	if err := insertAuditLog(ctx, e, log); err != nil {
		return err
	}

	slog.Debug("created transaction", "id", txn.ID, "book", txn.BookID)
	return nil
}

func updateTransaction(ctx context.Context, e execer, txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}

	existing, err := getTransaction(ctx, e, txn.ID)
	if err != nil {
		return err
	}

	book, err := getBook(ctx, e, txn.BookID)
	if err != nil {
		return err
	}
	if err := validateTransaction(txn, book); err != nil {
		return err
	}

	tags, attachments, custom, err := marshalTransactionColumns(txn)
	if err != nil {
		return err
	}

	_, err = e.ExecContext(ctx, `
		UPDATE transactions
		SET book_id = ?, type = ?, amount = ?, txn_date = ?, description = ?,
			category_id = ?, party_id = ?, payment_mode = ?, tags = ?,
			attachments = ?, custom_data = ?, created_by = ?
		WHERE id = ?`,
		txn.BookID, txn.Type, txn.Amount, txn.DateString(), txn.Description,
		txn.CategoryID, txn.PartyID, txn.PaymentMode, tags,
		attachments, custom, txn.CreatedBy, txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	// Every update operation gets an entry, even when nothing differed.
	changes, err := diffTransactions(existing, txn)
	if err != nil {
		return err
	}
	log := model.NewAuditLog(model.ActionUpdate, txn, changes)
	if err := insertAuditLog(ctx, e, log); err != nil {
		return err
	}

	slog.Debug("updated transaction", "id", txn.ID, "changed_fields", len(changes))
	return nil
}

func deleteTransaction(ctx context.Context, e execer, id, performedBy string) error {
	existing, err := getTransaction(ctx, e, id)
	if err != nil {
		return err
	}

	if _, err := e.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	// Delete entries record the event only; prior field values are not
	// separately preserved.
	log := model.NewAuditLog(model.ActionDelete, existing, nil)
	if performedBy != "" {
		log.PerformedBy = performedBy
	}
	if err := insertAuditLog(ctx, e, log); err != nil {
		return err
	}

	slog.Debug("deleted transaction", "id", id)
	return nil
}

func getTransaction(ctx context.Context, e execer, id string) (*model.Transaction, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := e.QueryRowContext(ctx, `
		SELECT id, book_id, type, amount, txn_date, description, category_id,
			party_id, payment_mode, tags, attachments, custom_data, created_by, recorded_at
		FROM transactions
		WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func getTransactionsByBook(ctx context.Context, e execer, bookID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateString(bookID, "bookID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, book_id, type, amount, txn_date, description, category_id,
			party_id, payment_mode, tags, attachments, custom_data, created_by, recorded_at
		FROM transactions
		WHERE book_id = ?`
	args := []any{bookID}

	if filter.StartDate != nil {
		query += ` AND txn_date >= ?`
		args = append(args, filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		query += ` AND txn_date <= ?`
		args = append(args, filter.EndDate.Format(model.DateLayout))
	}
	query += ` ORDER BY txn_date DESC, recorded_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	slog.Debug("retrieved transactions", "book", bookID, "count", len(txns))
	return txns, nil
}

func marshalTransactionColumns(txn *model.Transaction) (tags, attachments, custom string, err error) {
	rawTags, err := json.Marshal(emptyIfNil(txn.Tags))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	rawAttachments, err := json.Marshal(emptyIfNil(txn.Attachments))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal attachments: %w", err)
	}
	customData := txn.CustomData
	if customData == nil {
		customData = map[string]model.Value{}
	}
	rawCustom, err := json.Marshal(customData)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal custom data: %w", err)
	}
	return string(rawTags), string(rawAttachments), string(rawCustom), nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var txnDate, tags, attachments, custom string

	err := row.Scan(&txn.ID, &txn.BookID, &txn.Type, &txn.Amount, &txnDate,
		&txn.Description, &txn.CategoryID, &txn.PartyID, &txn.PaymentMode,
		&tags, &attachments, &custom, &txn.CreatedBy, &txn.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.TxnDate, err = time.Parse(model.DateLayout, txnDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction date %q: %w", txnDate, err)
	}
	if err := json.Unmarshal([]byte(tags), &txn.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(attachments), &txn.Attachments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
	}
	if err := json.Unmarshal([]byte(custom), &txn.CustomData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal custom data: %w", err)
	}
	if len(txn.Tags) == 0 {
		txn.Tags = nil
	}
	if len(txn.Attachments) == 0 {
		txn.Attachments = nil
	}
	return &txn, nil
}

// diffTransactions compares the JSON forms of two transactions field by field.
// RecordedAt is excluded; it reflects entry time, not user-visible state.
func diffTransactions(oldTxn, newTxn *model.Transaction) ([]model.FieldChange, error) {
	oldMap, err := transactionFieldMap(oldTxn)
	if err != nil {
		return nil, err
	}
	newMap, err := transactionFieldMap(newTxn)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]bool, len(oldMap)+len(newMap))
	for k := range oldMap {
		keys[k] = true
	}
	for k := range newMap {
		keys[k] = true
	}

	var changes []model.FieldChange
	for key := range keys {
		if key == "id" || key == "recorded_at" {
			continue
		}
		oldRaw, _ := json.Marshal(oldMap[key])
		newRaw, _ := json.Marshal(newMap[key])
		if string(oldRaw) != string(newRaw) {
			changes = append(changes, model.FieldChange{
				Field:    key,
				OldValue: oldMap[key],
				NewValue: newMap[key],
			})
		}
	}
	return changes, nil
}

func transactionFieldMap(txn *model.Transaction) (map[string]any, error) {
	raw, err := json.Marshal(txn)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction for diff: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction for diff: %w", err)
	}
	return fields, nil
}
