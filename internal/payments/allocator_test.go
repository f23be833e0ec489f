package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mcvu-symposium/backend/internal/models"
)

// stubInserter records inserts and reports ErrAmountTaken for amounts
// already claimed, like the payments unique index does.
type stubInserter struct {
	taken    map[int64]bool
	inserted []*models.Payment
	failWith error
}

func (s *stubInserter) InsertPayment(_ context.Context, p *models.Payment) error {
	if s.failWith != nil {
		return s.failWith
	}
	if s.taken[p.Amount] {
		return ErrAmountTaken
	}
	if s.taken == nil {
		s.taken = make(map[int64]bool)
	}
	s.taken[p.Amount] = true
	s.inserted = append(s.inserted, p)
	return nil
}

func TestAllocate_IncrementWithinRange(t *testing.T) {
	stub := &stubInserter{}
	a := NewAllocator(stub)

	for i := 0; i < 200; i++ {
		stub.taken = nil
		p, err := a.Allocate(context.Background(), uuid.New(), 150000, models.PaymentMethodBankTransfer)
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		if p.Increment < 1 || p.Increment > 999 {
			t.Fatalf("increment %d out of [1, 999]", p.Increment)
		}
		if p.Amount != 150000+int64(p.Increment) {
			t.Fatalf("amount %d != base + increment %d", p.Amount, 150000+int64(p.Increment))
		}
		if p.Status != models.PaymentStatusPending {
			t.Fatalf("status = %q, want pending", p.Status)
		}
	}
}

func TestAllocate_RetriesOnCollision(t *testing.T) {
	// Force the first draw onto a taken amount; the second must differ.
	stub := &stubInserter{taken: map[int64]bool{150037: true}}
	a := NewAllocator(stub)
	draws := []int{37, 37, 101}
	a.intn = func(int) int { d := draws[0]; draws = draws[1:]; return d - 1 }

	p, err := a.Allocate(context.Background(), uuid.New(), 150000, models.PaymentMethodBankTransfer)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if p.Amount != 150101 {
		t.Errorf("amount = %d, want 150101 after colliding on 150037 twice", p.Amount)
	}
	if p.Increment != 101 {
		t.Errorf("increment = %d, want 101", p.Increment)
	}
	if len(stub.inserted) != 1 {
		t.Errorf("inserted %d payments, want 1", len(stub.inserted))
	}
}

func TestAllocate_ExhaustsAfterFiftyAttempts(t *testing.T) {
	taken := make(map[int64]bool)
	for i := int64(1); i <= 999; i++ {
		taken[150000+i] = true
	}
	stub := &stubInserter{taken: taken}
	a := NewAllocator(stub)

	_, err := a.Allocate(context.Background(), uuid.New(), 150000, models.PaymentMethodBankTransfer)
	if !errors.Is(err, ErrAllocationExhausted) {
		t.Fatalf("error = %v, want ErrAllocationExhausted", err)
	}
}

func TestAllocate_PropagatesStorageError(t *testing.T) {
	boom := errors.New("connection reset")
	stub := &stubInserter{failWith: boom}
	a := NewAllocator(stub)

	_, err := a.Allocate(context.Background(), uuid.New(), 150000, models.PaymentMethodBankTransfer)
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, ErrAllocationExhausted) {
		t.Fatal("storage errors must not be reported as exhaustion")
	}
}
