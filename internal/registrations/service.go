package registrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/internal/models"
	"github.com/mcvu-symposium/backend/internal/pricing"
	"github.com/mcvu-symposium/backend/internal/promo"
	"github.com/mcvu-symposium/backend/internal/qrcodes"
	"github.com/mcvu-symposium/backend/pkg/queue"
	"github.com/mcvu-symposium/backend/pkg/storage"
)

// ParticipantRequest is one participant in the register payload.
type ParticipantRequest struct {
	FullName        string   `json:"full_name" binding:"required"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone"`
	NIK             string   `json:"nik" binding:"required,len=16,numeric"`
	Category        string   `json:"category" binding:"required,oneof=specialist_doctor general_doctor nurse student other"`
	Institution     string   `json:"institution"`
	AttendSymposium bool     `json:"attend_symposium"`
	WorkshopIDs     []string `json:"workshop_ids" binding:"omitempty,dive,uuid"`
}

// ContactRequest is the billing contact in the register payload.
type ContactRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
}

// RegisterRequest is the body for POST /api/register.
type RegisterRequest struct {
	Participants  []ParticipantRequest `json:"participants" binding:"required,min=1,dive"`
	ContactPerson *ContactRequest      `json:"contact_person"`
	PromoCode     string               `json:"promo_code"`
	PaymentMethod string               `json:"payment_method" binding:"omitempty,oneof=bank_transfer on_site"`
	CaptchaToken  string               `json:"captcha_token"`
}

// SponsorFile is an uploaded sponsor guarantee letter.
type SponsorFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// RegisterResult is returned to the client on success.
type RegisterResult struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	RegistrationNo string    `json:"registration_no"`
	OriginalAmount int64     `json:"original_amount"`
	DiscountAmount int64     `json:"discount_amount"`
	UniqueAmount   int64     `json:"unique_amount"`
	Increment      int       `json:"unique_increment"`
}

// registrationStore is the write surface of the repository the flow needs.
type registrationStore interface {
	CreateFull(ctx context.Context, params CreateParams) (*models.Registration, []models.ParticipantQRCode, error)
	SetPaymentAllocation(ctx context.Context, id uuid.UUID, finalAmount int64, increment int) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	SetSponsorLetterKey(ctx context.Context, id uuid.UUID, key string) error
}

type promoStore interface {
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
	Redeem(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error
}

type priceSource interface {
	TicketPrices(ctx context.Context) (pricing.TicketPrices, error)
	WorkshopPrices(ctx context.Context) (pricing.WorkshopPrices, error)
}

type amountAllocator interface {
	Allocate(ctx context.Context, registrationID uuid.UUID, base int64, method string) (*models.Payment, error)
}

type jobQueue interface {
	EnqueueQRImage(ctx context.Context, payload queue.QRImagePayload) error
	EnqueueInvoiceEmail(ctx context.Context, registrationID uuid.UUID) error
	EnqueueOrderSnapshot(ctx context.Context, registrationID uuid.UUID) error
}

type objectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, publicRead bool) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	SponsorBucket() string
}

// Service runs the registration flow: pricing, promo, transactional persist,
// unique-amount allocation, and job dispatch.
type Service struct {
	regs      registrationStore
	promos    promoStore
	catalog   priceSource
	allocator amountAllocator
	queue     jobQueue
	storage   objectStore
	logger    *zap.Logger
}

// NewService creates a registration service. s3 may be nil (sponsor
// letters are then rejected at the handler).
func NewService(regs registrationStore, promos promoStore, cat priceSource,
	allocator amountAllocator, q jobQueue, s3 *storage.S3, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{regs: regs, promos: promos, catalog: cat, allocator: allocator, queue: q, logger: logger}
	if s3 != nil {
		svc.storage = s3
	}
	return svc
}

// Register executes the full flow. Mandatory writes are transactional;
// the payment allocation runs after commit and compensates by marking the
// registration failed when it cannot find a free amount.
func (s *Service) Register(ctx context.Context, req RegisterRequest, sponsor *SponsorFile) (*RegisterResult, error) {
	ticketPrices, err := s.catalog.TicketPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ticket prices: %w", err)
	}
	workshopPrices, err := s.catalog.WorkshopPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workshop prices: %w", err)
	}

	selections := make([]pricing.Selection, 0, len(req.Participants))
	categories := make([]string, 0, len(req.Participants))
	inputs := make([]ParticipantInput, 0, len(req.Participants))
	for _, pr := range req.Participants {
		wsIDs := make([]uuid.UUID, 0, len(pr.WorkshopIDs))
		for _, raw := range pr.WorkshopIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid workshop id %q", raw)
			}
			if _, ok := workshopPrices[id]; !ok {
				return nil, fmt.Errorf("unknown workshop %s", id)
			}
			wsIDs = append(wsIDs, id)
		}
		selections = append(selections, pricing.Selection{
			Category:        pr.Category,
			AttendSymposium: pr.AttendSymposium,
			WorkshopIDs:     wsIDs,
		})
		categories = append(categories, pr.Category)

		code, err := qrcodes.NewCode()
		if err != nil {
			return nil, fmt.Errorf("generate check-in code: %w", err)
		}
		inputs = append(inputs, ParticipantInput{
			Participant: models.Participant{
				FullName:        pr.FullName,
				Email:           pr.Email,
				Phone:           pr.Phone,
				NIK:             pr.NIK,
				Category:        pr.Category,
				Institution:     pr.Institution,
				AttendSymposium: pr.AttendSymposium,
			},
			WorkshopIDs: wsIDs,
			QRCode:      code,
		})
	}

	total := pricing.Total(selections, ticketPrices, workshopPrices)

	// Promo failures are fail-open: registration proceeds at full price.
	var discount int64
	appliedPromo := ""
	if req.PromoCode != "" {
		p, err := s.promos.GetByCode(ctx, req.PromoCode)
		if err != nil {
			s.logger.Warn("promo lookup failed, ignoring code", zap.Error(err), zap.String("code", req.PromoCode))
		} else if res := promo.Evaluate(p, total, categories, time.Now()); res.Valid {
			redeemed, err := s.promos.Redeem(ctx, req.PromoCode)
			if err != nil {
				s.logger.Warn("promo redeem failed, ignoring code", zap.Error(err), zap.String("code", req.PromoCode))
			} else if redeemed {
				discount = res.Discount
				appliedPromo = p.Code
			}
		}
	}

	var contact *models.ContactPerson
	if req.ContactPerson != nil {
		contact = &models.ContactPerson{
			FullName: req.ContactPerson.FullName,
			Email:    req.ContactPerson.Email,
			Phone:    req.ContactPerson.Phone,
		}
	}

	reg, qrs, err := s.regs.CreateFull(ctx, CreateParams{
		TotalAmount:    total,
		DiscountAmount: discount,
		PromoCode:      appliedPromo,
		Participants:   inputs,
		Contact:        contact,
	})
	if err != nil {
		s.releasePromo(ctx, appliedPromo)
		return nil, fmt.Errorf("persist registration: %w", err)
	}

	sponsorKey := ""
	if sponsor != nil && s.storage != nil {
		key := storage.SponsorKey(reg.RegistrationNo, sponsor.Filename)
		if _, err := s.storage.Upload(ctx, s.storage.SponsorBucket(), key, sponsor.ContentType, sponsor.Body, false); err != nil {
			s.logger.Warn("sponsor letter upload failed", zap.Error(err), zap.String("registration_no", reg.RegistrationNo))
		} else if err := s.regs.SetSponsorLetterKey(ctx, reg.ID, key); err != nil {
			s.logger.Warn("store sponsor letter key failed", zap.Error(err), zap.String("registration_no", reg.RegistrationNo))
		} else {
			sponsorKey = key
		}
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodBankTransfer
	}
	payment, err := s.allocator.Allocate(ctx, reg.ID, total-discount, method)
	if err != nil {
		if mfErr := s.regs.MarkFailed(ctx, reg.ID); mfErr != nil {
			s.logger.Error("mark registration failed", zap.Error(mfErr), zap.String("registration_no", reg.RegistrationNo))
		}
		s.releasePromo(ctx, appliedPromo)
		if sponsorKey != "" {
			if delErr := s.storage.DeleteObject(ctx, s.storage.SponsorBucket(), sponsorKey); delErr != nil {
				s.logger.Warn("sponsor letter cleanup failed", zap.Error(delErr), zap.String("key", sponsorKey))
			}
		}
		return nil, fmt.Errorf("allocate payment amount: %w", err)
	}
	if err := s.regs.SetPaymentAllocation(ctx, reg.ID, payment.Amount, payment.Increment); err != nil {
		return nil, fmt.Errorf("store payment allocation: %w", err)
	}

	s.dispatchJobs(ctx, reg, qrs)

	return &RegisterResult{
		RegistrationID: reg.ID,
		RegistrationNo: reg.RegistrationNo,
		OriginalAmount: total,
		DiscountAmount: discount,
		UniqueAmount:   payment.Amount,
		Increment:      payment.Increment,
	}, nil
}

// releasePromo hands a redeemed use back when the registration it paid for
// never made it to a payable state.
func (s *Service) releasePromo(ctx context.Context, code string) {
	if code == "" {
		return
	}
	if err := s.promos.Release(ctx, code); err != nil {
		s.logger.Warn("promo release failed", zap.Error(err), zap.String("code", code))
	}
}

// dispatchJobs hands best-effort side effects to the durable queue.
// Enqueue failures are logged only; the registration stands.
func (s *Service) dispatchJobs(ctx context.Context, reg *models.Registration, qrs []models.ParticipantQRCode) {
	for _, qr := range qrs {
		err := s.queue.EnqueueQRImage(ctx, queue.QRImagePayload{
			QRCodeID:       qr.ID,
			RegistrationID: qr.RegistrationID,
			ParticipantID:  qr.ParticipantID,
			Code:           qr.Code,
		})
		if err != nil {
			s.logger.Warn("enqueue qr image failed", zap.Error(err), zap.String("code", qr.Code))
		}
	}
	if err := s.queue.EnqueueInvoiceEmail(ctx, reg.ID); err != nil {
		s.logger.Warn("enqueue invoice email failed", zap.Error(err), zap.String("registration_no", reg.RegistrationNo))
	}
	if err := s.queue.EnqueueOrderSnapshot(ctx, reg.ID); err != nil {
		s.logger.Warn("enqueue order snapshot failed", zap.Error(err), zap.String("registration_no", reg.RegistrationNo))
	}
}

// BuildOrderDetails recomputes the order-details snapshot for a registration.
// Used by the snapshot worker job.
func BuildOrderDetails(detail *models.RegistrationDetail) (json.RawMessage, error) {
	type orderLine struct {
		Participant string   `json:"participant"`
		Category    string   `json:"category"`
		Symposium   bool     `json:"symposium"`
		Workshops   []string `json:"workshops,omitempty"`
	}
	lines := make([]orderLine, 0, len(detail.Participants))
	for _, p := range detail.Participants {
		line := orderLine{Participant: p.FullName, Category: p.Category, Symposium: p.AttendSymposium}
		for _, w := range detail.Workshops[p.ID.String()] {
			line.Workshops = append(line.Workshops, w.Title)
		}
		lines = append(lines, line)
	}
	snapshot := map[string]interface{}{
		"registration_no": detail.Registration.RegistrationNo,
		"total_amount":    detail.Registration.TotalAmount,
		"discount_amount": detail.Registration.DiscountAmount,
		"final_amount":    detail.Registration.FinalAmount,
		"promo_code":      detail.Registration.PromoCode,
		"lines":           lines,
		"generated_at":    time.Now().UTC(),
	}
	return json.Marshal(snapshot)
}
