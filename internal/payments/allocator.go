// Package payments creates and verifies bank-transfer payments. Each live
// payment's amount carries a small increment so the transfer is identifiable
// on the bank statement; a partial unique index makes that a hard guarantee.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/mcvu-symposium/backend/internal/models"
)

// ErrAmountTaken is returned by Inserter when the computed amount collides
// with an existing non-rejected payment.
var ErrAmountTaken = errors.New("payment amount already taken")

// ErrAllocationExhausted is returned when no free amount was found within
// the attempt budget.
var ErrAllocationExhausted = errors.New("could not allocate a unique payment amount")

const (
	maxAttempts  = 50
	incrementMax = 999
)

// Inserter persists a payment row, reporting ErrAmountTaken on an amount
// uniqueness conflict.
type Inserter interface {
	InsertPayment(ctx context.Context, p *models.Payment) error
}

// Allocator assigns a unique payable amount: discounted total plus a random
// increment in [1, 999]. It relies on the storage layer's uniqueness
// constraint and retries with a fresh increment on conflict, so two
// concurrent registrations landing on the same amount cannot both win.
type Allocator struct {
	payments Inserter
	intn     func(n int) int
}

// NewAllocator creates an allocator backed by the given inserter.
func NewAllocator(payments Inserter) *Allocator {
	return &Allocator{payments: payments, intn: rand.Intn}
}

// Allocate inserts a pending payment for base + increment, retrying up to 50
// times when the amount is taken. The returned payment is persisted.
func (a *Allocator) Allocate(ctx context.Context, registrationID uuid.UUID, base int64, method string) (*models.Payment, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		increment := 1 + a.intn(incrementMax)
		p := &models.Payment{
			RegistrationID: registrationID,
			Amount:         base + int64(increment),
			Increment:      increment,
			Method:         method,
			Status:         models.PaymentStatusPending,
		}
		err := a.payments.InsertPayment(ctx, p)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, ErrAmountTaken) {
			continue
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return nil, ErrAllocationExhausted
}
