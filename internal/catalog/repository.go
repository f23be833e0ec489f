// Package catalog serves the read-only ticket and workshop price lists.
// List reads go through a short-lived Redis cache; price lookups used by the
// registration flow always hit the database.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/internal/models"
	"github.com/mcvu-symposium/backend/internal/pricing"
)

const (
	cacheKeyTickets   = "catalog:tickets"
	cacheKeyWorkshops = "catalog:workshops"
	cacheTTL          = 5 * time.Minute
)

// Repository handles catalog reads.
type Repository struct {
	pool   *pgxpool.Pool
	cache  *redis.Client
	logger *zap.Logger
}

// NewRepository creates a catalog repository. cache may be nil.
func NewRepository(pool *pgxpool.Pool, cache *redis.Client, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{pool: pool, cache: cache, logger: logger}
}

// ListTickets returns active tickets, cached.
func (r *Repository) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	var cached []models.Ticket
	if r.fromCache(ctx, cacheKeyTickets, &cached) {
		return cached, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name, category, price, active, created_at
		FROM tickets WHERE active ORDER BY price DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.Price, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.toCache(ctx, cacheKeyTickets, list)
	return list, nil
}

// ListWorkshops returns active workshops, cached.
func (r *Repository) ListWorkshops(ctx context.Context) ([]models.Workshop, error) {
	var cached []models.Workshop
	if r.fromCache(ctx, cacheKeyWorkshops, &cached) {
		return cached, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id, title, price, capacity, active, created_at
		FROM workshops WHERE active ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Workshop
	for rows.Next() {
		var w models.Workshop
		if err := rows.Scan(&w.ID, &w.Title, &w.Price, &w.Capacity, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.toCache(ctx, cacheKeyWorkshops, list)
	return list, nil
}

// TicketPrices returns category -> price for active tickets.
func (r *Repository) TicketPrices(ctx context.Context) (pricing.TicketPrices, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, price FROM tickets WHERE active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prices := make(pricing.TicketPrices)
	for rows.Next() {
		var category string
		var price int64
		if err := rows.Scan(&category, &price); err != nil {
			return nil, err
		}
		prices[category] = price
	}
	return prices, rows.Err()
}

// WorkshopPrices returns id -> price for active workshops.
func (r *Repository) WorkshopPrices(ctx context.Context) (pricing.WorkshopPrices, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, price FROM workshops WHERE active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prices := make(pricing.WorkshopPrices)
	for rows.Next() {
		var w models.Workshop
		if err := rows.Scan(&w.ID, &w.Price); err != nil {
			return nil, err
		}
		prices[w.ID] = w.Price
	}
	return prices, rows.Err()
}

// ActiveBankAccount returns the invoice bank account, or nil when none is configured.
func (r *Repository) ActiveBankAccount(ctx context.Context) (*models.BankAccount, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, bank_name, account_number, account_holder, active
		FROM bank_accounts WHERE active LIMIT 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var b models.BankAccount
	if err := rows.Scan(&b.ID, &b.BankName, &b.AccountNumber, &b.AccountHolder, &b.Active); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) fromCache(ctx context.Context, key string, out interface{}) bool {
	if r.cache == nil {
		return false
	}
	raw, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (r *Repository) toCache(ctx context.Context, key string, v interface{}) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		r.logger.Debug("catalog cache set failed", zap.Error(err), zap.String("key", key))
	}
}
