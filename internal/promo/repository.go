package promo

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcvu-symposium/backend/internal/models"
)

// Repository handles promo code persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a promo repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByCode returns the promo code row (case-insensitive), or nil when absent.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	const q = `SELECT id, code, discount_type, discount_value, valid_from, valid_until,
		max_uses, used_count, category, active, created_at, updated_at
		FROM promo_codes WHERE UPPER(code) = $1`
	var p models.PromoCode
	err := r.pool.QueryRow(ctx, q, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&p.ID, &p.Code, &p.DiscountType, &p.DiscountValue, &p.ValidFrom, &p.ValidUntil,
		&p.MaxUses, &p.UsedCount, &p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Redeem increments the usage counter in a single guarded statement, so
// concurrent redemptions can never push usage past the cap. Returns false
// when the cap is already reached or the code turned inactive.
func (r *Repository) Redeem(ctx context.Context, code string) (bool, error) {
	const q = `UPDATE promo_codes
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE UPPER(code) = $1 AND active AND (max_uses = 0 OR used_count < max_uses)`
	tag, err := r.pool.Exec(ctx, q, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Release hands one use back, compensating a redeem whose registration was
// never persisted. Clamped at zero.
func (r *Repository) Release(ctx context.Context, code string) error {
	const q = `UPDATE promo_codes
		SET used_count = GREATEST(used_count - 1, 0), updated_at = NOW()
		WHERE UPPER(code) = $1`
	_, err := r.pool.Exec(ctx, q, strings.ToUpper(strings.TrimSpace(code)))
	return err
}
