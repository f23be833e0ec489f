package models

import (
	"time"

	"github.com/google/uuid"
)

// Promo discount types.
const (
	PromoDiscountPercentage = "percentage"
	PromoDiscountFixed      = "fixed"
)

// PromoCode is a discount code with validity window, usage cap, and an
// optional participant-category restriction.
type PromoCode struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue int64      `json:"discount_value"` // percent for percentage, rupiah for fixed
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	MaxUses       int        `json:"max_uses"` // 0 = unlimited
	UsedCount     int        `json:"used_count"`
	Category      string     `json:"category,omitempty"` // "" = no restriction
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
