package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/checkout-service/internal/domain/models"
)

var (
	ErrPendingNotFound = errors.New("pending payment not found")
	ErrTxRefExists     = errors.New("transaction reference already exists")
)

// PendingPaymentStorage is the durable mapping from transaction reference to
// a staged order payload. The unique key on transaction_reference plus
// delete-on-success is what serializes duplicate callbacks.
type PendingPaymentStorage interface {
	// Create inserts a new pending payment; a duplicate reference returns ErrTxRefExists.
	Create(ctx context.Context, pending *models.PendingPayment) error
	// GetByTxRef returns the pending payment for the reference.
	GetByTxRef(ctx context.Context, txRef string) (*models.PendingPayment, error)
	// Delete removes the row outside a transaction (cleanup after a failed initiation).
	Delete(ctx context.Context, txRef string) error
	// DeleteTx removes the row inside the materialization transaction and reports
	// whether this caller actually consumed it.
	DeleteTx(ctx context.Context, tx *sql.Tx, txRef string) (bool, error)
}

type pendingPaymentRepository struct {
	db *sql.DB
}

func NewPendingPaymentRepository(db *sql.DB) PendingPaymentStorage {
	return &pendingPaymentRepository{db: db}
}

func (r *pendingPaymentRepository) Create(ctx context.Context, pending *models.PendingPayment) error {
	details, err := json.Marshal(pending.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal order details: %w", err)
	}

	query := `INSERT INTO pending_payments (transaction_reference, user_id, total_price, order_details, created_at)
	          VALUES ($1, $2, $3, $4, NOW()) RETURNING id`
	err = r.db.QueryRowContext(ctx, query, pending.TxRef, pending.UserID, pending.TotalPrice, details).Scan(&pending.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return ErrTxRefExists
		}
		return fmt.Errorf("failed to create pending payment: %w", err)
	}
	return nil
}

func (r *pendingPaymentRepository) GetByTxRef(ctx context.Context, txRef string) (*models.PendingPayment, error) {
	pending := &models.PendingPayment{}
	var details []byte

	query := `SELECT id, transaction_reference, user_id, total_price, order_details, created_at
	          FROM pending_payments WHERE transaction_reference = $1`
	row := r.db.QueryRowContext(ctx, query, txRef)
	if err := row.Scan(&pending.ID, &pending.TxRef, &pending.UserID, &pending.TotalPrice, &details, &pending.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(details, &pending.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order details: %w", err)
	}
	return pending, nil
}

func (r *pendingPaymentRepository) Delete(ctx context.Context, txRef string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM pending_payments WHERE transaction_reference = $1", txRef)
	if err != nil {
		return fmt.Errorf("failed to delete pending payment: %w", err)
	}
	return nil
}

func (r *pendingPaymentRepository) DeleteTx(ctx context.Context, tx *sql.Tx, txRef string) (bool, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM pending_payments WHERE transaction_reference = $1", txRef)
	if err != nil {
		return false, fmt.Errorf("failed to delete pending payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
