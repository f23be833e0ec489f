package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantQRCode is the check-in token for one participant of one
// registration. Code is the short alphanumeric token embedded in the QR;
// ImageURL is populated asynchronously once the rendered image is stored.
type ParticipantQRCode struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID uuid.UUID `json:"registration_id"`
	ParticipantID  uuid.UUID `json:"participant_id"`
	Code           string    `json:"code"`
	ImageURL       string    `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
