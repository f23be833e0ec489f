package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactPerson is the registration's billing contact; at most one per
// registration. Invoice emails go to this address when present, otherwise
// to the first participant.
type ContactPerson struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID uuid.UUID `json:"registration_id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
