package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Registration status.
const (
	RegistrationStatusPending  = "pending"
	RegistrationStatusVerified = "verified"
	RegistrationStatusPaid     = "paid"
	// RegistrationStatusFailed marks a registration whose payment amount
	// could not be allocated; it is never payable.
	RegistrationStatusFailed = "failed"
)

// Registration is one signup transaction covering one or more participants.
type Registration struct {
	ID               uuid.UUID       `json:"id"`
	RegistrationNo   string          `json:"registration_no"` // MCVU-########
	Status           string          `json:"status"`
	TotalAmount      int64           `json:"total_amount"`
	DiscountAmount   int64           `json:"discount_amount"`
	FinalAmount      int64           `json:"final_amount"` // total - discount + unique increment
	UniqueIncrement  int             `json:"unique_increment"`
	PromoCode        string          `json:"promo_code,omitempty"`
	SponsorLetterKey string          `json:"sponsor_letter_key,omitempty"`
	ParticipantIDs   []uuid.UUID     `json:"participant_ids,omitempty"`
	OrderDetails     json.RawMessage `json:"order_details,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// RegistrationDetail is a registration joined with its dependents, as
// returned by the lookup endpoints and consumed by the notifier.
type RegistrationDetail struct {
	Registration  Registration          `json:"registration"`
	Participants  []Participant         `json:"participants"`
	Payment       *Payment              `json:"payment,omitempty"`
	ContactPerson *ContactPerson        `json:"contact_person,omitempty"`
	QRCodes       []ParticipantQRCode   `json:"qr_codes,omitempty"`
	Workshops     map[string][]Workshop `json:"workshops,omitempty"` // participant id -> selected workshops
}
