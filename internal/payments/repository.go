package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcvu-symposium/backend/internal/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// Repository handles payment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertPayment inserts a pending payment. A collision with the
// payments_amount_active_key index surfaces as ErrAmountTaken.
func (r *Repository) InsertPayment(ctx context.Context, p *models.Payment) error {
	const q = `INSERT INTO payments (registration_id, amount, increment, method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, p.RegistrationID, p.Amount, p.Increment, p.Method, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAmountTaken
		}
		return err
	}
	return nil
}

// GetByID returns a payment by ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	const q = `SELECT id, registration_id, amount, increment, method, status, notes, verified_at, created_at, updated_at
		FROM payments WHERE id = $1`
	var p models.Payment
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.RegistrationID, &p.Amount, &p.Increment, &p.Method, &p.Status,
		&p.Notes, &p.VerifiedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Verify flips a pending payment to verified or rejected and, on verified,
// the registration to paid — both in one transaction so the two rows cannot
// diverge. Returns false when the payment is not pending anymore.
func (r *Repository) Verify(ctx context.Context, paymentID uuid.UUID, status, notes string) (bool, error) {
	if status != models.PaymentStatusVerified && status != models.PaymentStatusRejected {
		return false, fmt.Errorf("invalid verification status %q", status)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const upd = `UPDATE payments
		SET status = $2, notes = $3, verified_at = CASE WHEN $2 = 'verified' THEN NOW() END, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING registration_id`
	var registrationID uuid.UUID
	err = tx.QueryRow(ctx, upd, paymentID, status, notes).Scan(&registrationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if status == models.PaymentStatusVerified {
		const reg = `UPDATE registrations SET status = 'paid', updated_at = NOW() WHERE id = $1`
		if _, err := tx.Exec(ctx, reg, registrationID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// ListPending returns pending payments, oldest first, for the admin screen.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, registration_id, amount, increment, method, status, notes, verified_at, created_at, updated_at
		FROM payments WHERE status = 'pending' ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.RegistrationID, &p.Amount, &p.Increment, &p.Method, &p.Status,
			&p.Notes, &p.VerifiedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
