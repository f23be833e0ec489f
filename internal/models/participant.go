package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant categories; each maps to a ticket price in the catalog.
const (
	CategorySpecialistDoctor = "specialist_doctor"
	CategoryGeneralDoctor    = "general_doctor"
	CategoryNurse            = "nurse"
	CategoryStudent          = "student"
	CategoryOther            = "other"
)

// ValidCategory reports whether c is a known participant category.
func ValidCategory(c string) bool {
	switch c {
	case CategorySpecialistDoctor, CategoryGeneralDoctor, CategoryNurse, CategoryStudent, CategoryOther:
		return true
	}
	return false
}

// Participant is an individual attendee linked to a registration.
type Participant struct {
	ID              uuid.UUID  `json:"id"`
	RegistrationID  uuid.UUID  `json:"registration_id"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	NIK             string     `json:"nik"` // 16-digit national ID
	Category        string     `json:"category"`
	Institution     string     `json:"institution,omitempty"`
	AttendSymposium bool       `json:"attend_symposium"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
