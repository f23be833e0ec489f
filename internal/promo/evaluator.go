// Package promo evaluates and redeems discount codes. Promo failures are
// fail-open: the registration proceeds at full price and the caller only
// learns the reason through the check endpoint.
package promo

import (
	"math"
	"time"

	"github.com/mcvu-symposium/backend/internal/models"
)

// Rejection reasons returned by Evaluate for the preview endpoint.
const (
	ReasonNotFound         = "code not found or inactive"
	ReasonNotStarted       = "code not yet valid"
	ReasonExpired          = "code expired"
	ReasonUsageCapReached  = "usage cap reached"
	ReasonCategoryMismatch = "no participant matches the required category"
)

// Result of evaluating a promo against a total.
type Result struct {
	Valid       bool   `json:"valid"`
	Discount    int64  `json:"discount_amount"`
	FinalAmount int64  `json:"final_amount"`
	Reason      string `json:"reason,omitempty"`
}

// Evaluate checks p against the computed total and the participants'
// categories at the given time. Validation order: active -> time window ->
// usage cap -> category restriction. On success the discount is clamped so
// the final amount is never negative. Evaluate does not redeem.
func Evaluate(p *models.PromoCode, total int64, categories []string, now time.Time) Result {
	if p == nil || !p.Active {
		return Result{FinalAmount: total, Reason: ReasonNotFound}
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return Result{FinalAmount: total, Reason: ReasonNotStarted}
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return Result{FinalAmount: total, Reason: ReasonExpired}
	}
	if p.MaxUses > 0 && p.UsedCount >= p.MaxUses {
		return Result{FinalAmount: total, Reason: ReasonUsageCapReached}
	}
	if p.Category != "" {
		matched := false
		for _, c := range categories {
			if c == p.Category {
				matched = true
				break
			}
		}
		if !matched {
			return Result{FinalAmount: total, Reason: ReasonCategoryMismatch}
		}
	}

	var discount int64
	switch p.DiscountType {
	case models.PromoDiscountPercentage:
		discount = int64(math.Round(float64(total) * float64(p.DiscountValue) / 100))
	case models.PromoDiscountFixed:
		discount = p.DiscountValue
	}
	if discount > total {
		discount = total
	}
	if discount < 0 {
		discount = 0
	}
	return Result{Valid: true, Discount: discount, FinalAmount: total - discount}
}
