package promo

import (
	"testing"
	"time"

	"github.com/mcvu-symposium/backend/internal/models"
)

func promoFixture(mutate func(*models.PromoCode)) *models.PromoCode {
	p := &models.PromoCode{
		Code:          "EARLYBIRD",
		DiscountType:  models.PromoDiscountPercentage,
		DiscountValue: 10,
		Active:        true,
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name         string
		promo        *models.PromoCode
		total        int64
		categories   []string
		wantValid    bool
		wantDiscount int64
		wantFinal    int64
		wantReason   string
	}{
		{
			name:         "percentage discount rounds",
			promo:        promoFixture(func(p *models.PromoCode) { p.DiscountValue = 15 }),
			total:        150001,
			wantValid:    true,
			wantDiscount: 22500, // round(150001*0.15) = 22500.15 -> 22500
			wantFinal:    127501,
		},
		{
			name: "fixed discount",
			promo: promoFixture(func(p *models.PromoCode) {
				p.DiscountType = models.PromoDiscountFixed
				p.DiscountValue = 50000
			}),
			total:        150000,
			wantValid:    true,
			wantDiscount: 50000,
			wantFinal:    100000,
		},
		{
			name: "fixed discount clamped so final is never negative",
			promo: promoFixture(func(p *models.PromoCode) {
				p.DiscountType = models.PromoDiscountFixed
				p.DiscountValue = 999999
			}),
			total:        150000,
			wantValid:    true,
			wantDiscount: 150000,
			wantFinal:    0,
		},
		{
			name:       "nil promo fails open",
			promo:      nil,
			total:      150000,
			wantFinal:  150000,
			wantReason: ReasonNotFound,
		},
		{
			name:       "inactive code never discounts",
			promo:      promoFixture(func(p *models.PromoCode) { p.Active = false }),
			total:      150000,
			wantFinal:  150000,
			wantReason: ReasonNotFound,
		},
		{
			name:       "expired code never discounts",
			promo:      promoFixture(func(p *models.PromoCode) { p.ValidUntil = &past }),
			total:      150000,
			wantFinal:  150000,
			wantReason: ReasonExpired,
		},
		{
			name:       "not-yet-valid code never discounts",
			promo:      promoFixture(func(p *models.PromoCode) { p.ValidFrom = &future }),
			total:      150000,
			wantFinal:  150000,
			wantReason: ReasonNotStarted,
		},
		{
			name: "within window with both bounds",
			promo: promoFixture(func(p *models.PromoCode) {
				p.ValidFrom = &past
				p.ValidUntil = &future
			}),
			total:        100000,
			wantValid:    true,
			wantDiscount: 10000,
			wantFinal:    90000,
		},
		{
			name: "usage cap reached never discounts",
			promo: promoFixture(func(p *models.PromoCode) {
				p.MaxUses = 5
				p.UsedCount = 5
			}),
			total:      150000,
			wantFinal:  150000,
			wantReason: ReasonUsageCapReached,
		},
		{
			name:         "zero max uses means unlimited",
			promo:        promoFixture(func(p *models.PromoCode) { p.UsedCount = 10000 }),
			total:        100000,
			wantValid:    true,
			wantDiscount: 10000,
			wantFinal:    90000,
		},
		{
			name:       "category mismatch never discounts",
			promo:      promoFixture(func(p *models.PromoCode) { p.Category = models.CategoryStudent }),
			total:      150000,
			categories: []string{models.CategoryNurse, models.CategoryGeneralDoctor},
			wantFinal:  150000,
			wantReason: ReasonCategoryMismatch,
		},
		{
			name:         "category restriction satisfied by one participant",
			promo:        promoFixture(func(p *models.PromoCode) { p.Category = models.CategoryStudent }),
			total:        100000,
			categories:   []string{models.CategoryNurse, models.CategoryStudent},
			wantValid:    true,
			wantDiscount: 10000,
			wantFinal:    90000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.promo, tt.total, tt.categories, now)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.Discount != tt.wantDiscount {
				t.Errorf("Discount = %d, want %d", got.Discount, tt.wantDiscount)
			}
			if got.FinalAmount != tt.wantFinal {
				t.Errorf("FinalAmount = %d, want %d", got.FinalAmount, tt.wantFinal)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.FinalAmount < 0 {
				t.Errorf("FinalAmount is negative: %d", got.FinalAmount)
			}
		})
	}
}
