package registrations

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/internal/models"
	"github.com/mcvu-symposium/backend/internal/pricing"
	"github.com/mcvu-symposium/backend/pkg/queue"
)

type stubRegs struct {
	createErr error
	created   *CreateParams
	failedIDs []uuid.UUID
	allocated bool
}

func (s *stubRegs) CreateFull(_ context.Context, params CreateParams) (*models.Registration, []models.ParticipantQRCode, error) {
	if s.createErr != nil {
		return nil, nil, s.createErr
	}
	s.created = &params
	reg := &models.Registration{
		ID:             uuid.New(),
		RegistrationNo: "MCVU-00000007",
		TotalAmount:    params.TotalAmount,
		DiscountAmount: params.DiscountAmount,
		PromoCode:      params.PromoCode,
		Status:         models.RegistrationStatusPending,
	}
	qrs := []models.ParticipantQRCode{{ID: uuid.New(), RegistrationID: reg.ID, Code: "ABCD2345"}}
	return reg, qrs, nil
}

func (s *stubRegs) SetPaymentAllocation(context.Context, uuid.UUID, int64, int) error {
	s.allocated = true
	return nil
}

func (s *stubRegs) MarkFailed(_ context.Context, id uuid.UUID) error {
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

func (s *stubRegs) SetSponsorLetterKey(context.Context, uuid.UUID, string) error { return nil }

type stubPromos struct {
	promo    *models.PromoCode
	redeemed int
	released int
}

func (s *stubPromos) GetByCode(context.Context, string) (*models.PromoCode, error) {
	return s.promo, nil
}

func (s *stubPromos) Redeem(context.Context, string) (bool, error) {
	s.redeemed++
	return true, nil
}

func (s *stubPromos) Release(context.Context, string) error {
	s.released++
	return nil
}

type stubCatalog struct {
	tickets   pricing.TicketPrices
	workshops pricing.WorkshopPrices
}

func (s *stubCatalog) TicketPrices(context.Context) (pricing.TicketPrices, error) {
	return s.tickets, nil
}

func (s *stubCatalog) WorkshopPrices(context.Context) (pricing.WorkshopPrices, error) {
	return s.workshops, nil
}

type stubAllocator struct {
	err     error
	payment *models.Payment
}

func (s *stubAllocator) Allocate(_ context.Context, registrationID uuid.UUID, base int64, method string) (*models.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	p := *s.payment
	p.RegistrationID = registrationID
	p.Amount = base + int64(p.Increment)
	return &p, nil
}

type stubQueue struct {
	qrJobs    int
	invoices  int
	snapshots int
}

func (s *stubQueue) EnqueueQRImage(context.Context, queue.QRImagePayload) error {
	s.qrJobs++
	return nil
}

func (s *stubQueue) EnqueueInvoiceEmail(context.Context, uuid.UUID) error {
	s.invoices++
	return nil
}

func (s *stubQueue) EnqueueOrderSnapshot(context.Context, uuid.UUID) error {
	s.snapshots++
	return nil
}

func activePromo() *models.PromoCode {
	return &models.PromoCode{
		Code:          "EARLYBIRD",
		DiscountType:  models.PromoDiscountFixed,
		DiscountValue: 25000,
		Active:        true,
	}
}

func studentRequest(promoCode string) RegisterRequest {
	return RegisterRequest{
		Participants: []ParticipantRequest{{
			FullName:        "Budi Santoso",
			Email:           "budi@example.com",
			NIK:             "3173051234567890",
			Category:        models.CategoryStudent,
			AttendSymposium: true,
		}},
		PromoCode: promoCode,
	}
}

func newTestService(regs *stubRegs, promos *stubPromos, alloc *stubAllocator, q *stubQueue) *Service {
	cat := &stubCatalog{tickets: pricing.TicketPrices{models.CategoryStudent: 100000}}
	return NewService(regs, promos, cat, alloc, q, nil, zap.NewNop())
}

func TestServiceRegisterHappyPath(t *testing.T) {
	regs := &stubRegs{}
	promos := &stubPromos{promo: activePromo()}
	alloc := &stubAllocator{payment: &models.Payment{Increment: 37, Status: models.PaymentStatusPending}}
	q := &stubQueue{}
	svc := newTestService(regs, promos, alloc, q)

	res, err := svc.Register(context.Background(), studentRequest("EARLYBIRD"), nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.OriginalAmount != 100000 || res.DiscountAmount != 25000 {
		t.Errorf("amounts = %d / %d, want 100000 / 25000", res.OriginalAmount, res.DiscountAmount)
	}
	if res.UniqueAmount != 75037 {
		t.Errorf("unique amount = %d, want 75037", res.UniqueAmount)
	}
	if promos.redeemed != 1 || promos.released != 0 {
		t.Errorf("redeemed=%d released=%d, want 1/0", promos.redeemed, promos.released)
	}
	if q.qrJobs != 1 || q.invoices != 1 || q.snapshots != 1 {
		t.Errorf("jobs qr=%d invoice=%d snapshot=%d, want 1 each", q.qrJobs, q.invoices, q.snapshots)
	}
	if !regs.allocated {
		t.Error("payment allocation was not stored")
	}
}

func TestServiceRegisterReleasesPromoOnPersistFailure(t *testing.T) {
	regs := &stubRegs{createErr: errors.New("db down")}
	promos := &stubPromos{promo: activePromo()}
	svc := newTestService(regs, promos, &stubAllocator{}, &stubQueue{})

	_, err := svc.Register(context.Background(), studentRequest("EARLYBIRD"), nil)
	if err == nil {
		t.Fatal("expected persist error")
	}
	if promos.redeemed != 1 || promos.released != 1 {
		t.Errorf("redeemed=%d released=%d, want the consumed use handed back", promos.redeemed, promos.released)
	}
}

func TestServiceRegisterCompensatesOnExhaustedAllocation(t *testing.T) {
	regs := &stubRegs{}
	promos := &stubPromos{promo: activePromo()}
	alloc := &stubAllocator{err: errors.New("could not allocate a unique payment amount")}
	q := &stubQueue{}
	svc := newTestService(regs, promos, alloc, q)

	_, err := svc.Register(context.Background(), studentRequest("EARLYBIRD"), nil)
	if err == nil {
		t.Fatal("expected allocation error")
	}
	if len(regs.failedIDs) != 1 {
		t.Errorf("registration not marked failed, got %d", len(regs.failedIDs))
	}
	if promos.released != 1 {
		t.Errorf("released=%d, want 1", promos.released)
	}
	if q.qrJobs != 0 || q.invoices != 0 || q.snapshots != 0 {
		t.Error("no jobs should be dispatched for a failed registration")
	}
}

func TestServiceRegisterNoPromoNoRelease(t *testing.T) {
	regs := &stubRegs{createErr: errors.New("db down")}
	promos := &stubPromos{}
	svc := newTestService(regs, promos, &stubAllocator{}, &stubQueue{})

	_, err := svc.Register(context.Background(), studentRequest(""), nil)
	if err == nil {
		t.Fatal("expected persist error")
	}
	if promos.redeemed != 0 || promos.released != 0 {
		t.Errorf("promo touched without a code: redeemed=%d released=%d", promos.redeemed, promos.released)
	}
}
