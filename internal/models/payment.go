package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment status.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusRejected = "rejected"
)

// Payment method.
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodOnSite       = "on_site"
)

// Payment is a bank-transfer payment for a registration. Amount carries a
// small unique increment so transfers are individually identifiable; a
// partial unique index over non-rejected rows enforces it.
type Payment struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID uuid.UUID  `json:"registration_id"`
	Amount         int64      `json:"amount"`
	Increment      int        `json:"increment"`
	Method         string     `json:"method"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BankAccount is the destination account shown on invoices.
type BankAccount struct {
	ID            uuid.UUID `json:"id"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountHolder string    `json:"account_holder"`
	Active        bool      `json:"active"`
}
