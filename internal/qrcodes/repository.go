package qrcodes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcvu-symposium/backend/internal/models"
)

// Repository handles QR code and check-in persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a qrcodes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByCode returns a QR code row by its short code, or nil.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.ParticipantQRCode, error) {
	const q = `SELECT id, registration_id, participant_id, code, image_url, created_at
		FROM participant_qr_codes WHERE code = $1`
	var qr models.ParticipantQRCode
	err := r.pool.QueryRow(ctx, q, code).Scan(&qr.ID, &qr.RegistrationID, &qr.ParticipantID, &qr.Code, &qr.ImageURL, &qr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &qr, nil
}

// SetImageURL stores the rendered image URL for a QR code row.
func (r *Repository) SetImageURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := r.pool.Exec(ctx, `UPDATE participant_qr_codes SET image_url = $2 WHERE id = $1`, id, url)
	return err
}

// CheckInResult describes one check-in attempt.
type CheckInResult struct {
	Participant    models.Participant `json:"participant"`
	RegistrationNo string             `json:"registration_no"`
	AlreadyChecked bool               `json:"already_checked_in"`
	CheckedInAt    time.Time          `json:"checked_in_at"`
}

// CheckIn marks the participant behind a code as checked in. Idempotent: a
// second scan reports AlreadyChecked with the original timestamp.
func (r *Repository) CheckIn(ctx context.Context, code string) (*CheckInResult, error) {
	qr, err := r.GetByCode(ctx, code)
	if err != nil || qr == nil {
		return nil, err
	}

	const upd = `UPDATE participants SET checked_in_at = NOW()
		WHERE id = $1 AND checked_in_at IS NULL`
	tag, err := r.pool.Exec(ctx, upd, qr.ParticipantID)
	if err != nil {
		return nil, err
	}

	const sel = `SELECT p.id, p.registration_id, p.full_name, p.email, p.phone, p.nik, p.category,
		p.institution, p.attend_symposium, p.checked_in_at, p.created_at, r.registration_no
		FROM participants p JOIN registrations r ON r.id = p.registration_id
		WHERE p.id = $1`
	var res CheckInResult
	var p models.Participant
	err = r.pool.QueryRow(ctx, sel, qr.ParticipantID).Scan(
		&p.ID, &p.RegistrationID, &p.FullName, &p.Email, &p.Phone, &p.NIK, &p.Category,
		&p.Institution, &p.AttendSymposium, &p.CheckedInAt, &p.CreatedAt, &res.RegistrationNo)
	if err != nil {
		return nil, err
	}
	res.Participant = p
	res.AlreadyChecked = tag.RowsAffected() == 0
	if p.CheckedInAt != nil {
		res.CheckedInAt = *p.CheckedInAt
	}
	return &res, nil
}
