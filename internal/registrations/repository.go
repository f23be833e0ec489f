package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcvu-symposium/backend/internal/models"
)

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ParticipantInput is one participant plus their selections, ready to persist.
type ParticipantInput struct {
	Participant models.Participant
	WorkshopIDs []uuid.UUID
	QRCode      string
}

// CreateParams are the inputs to CreateFull.
type CreateParams struct {
	TotalAmount    int64
	DiscountAmount int64
	PromoCode      string
	Participants   []ParticipantInput
	Contact        *models.ContactPerson
}

// CreateFull persists a registration with all mandatory dependents in one
// transaction: registration row, participants, workshop links, QR code rows,
// contact person, and the participant-id list. Either everything lands or
// nothing does.
func (r *Repository) CreateFull(ctx context.Context, params CreateParams) (*models.Registration, []models.ParticipantQRCode, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('registration_no_seq')`).Scan(&seq); err != nil {
		return nil, nil, fmt.Errorf("registration sequence: %w", err)
	}

	reg := &models.Registration{
		RegistrationNo: FormatRegistrationNo(seq),
		Status:         models.RegistrationStatusPending,
		TotalAmount:    params.TotalAmount,
		DiscountAmount: params.DiscountAmount,
		FinalAmount:    params.TotalAmount - params.DiscountAmount,
		PromoCode:      params.PromoCode,
	}
	const insReg = `INSERT INTO registrations (registration_no, status, total_amount, discount_amount, final_amount, promo_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, insReg, reg.RegistrationNo, reg.Status, reg.TotalAmount, reg.DiscountAmount, reg.FinalAmount, reg.PromoCode).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("insert registration: %w", err)
	}

	const insPart = `INSERT INTO participants (registration_id, full_name, email, phone, nik, category, institution, attend_symposium)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	const insQR = `INSERT INTO participant_qr_codes (registration_id, participant_id, code)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	const insLink = `INSERT INTO workshop_registrations (participant_id, workshop_id, registration_id)
		VALUES ($1, $2, $3)`

	qrs := make([]models.ParticipantQRCode, 0, len(params.Participants))
	for i := range params.Participants {
		in := &params.Participants[i]
		p := &in.Participant
		p.RegistrationID = reg.ID
		err = tx.QueryRow(ctx, insPart, reg.ID, p.FullName, p.Email, p.Phone, p.NIK, p.Category, p.Institution, p.AttendSymposium).
			Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("insert participant %d: %w", i, err)
		}
		reg.ParticipantIDs = append(reg.ParticipantIDs, p.ID)

		qr := models.ParticipantQRCode{RegistrationID: reg.ID, ParticipantID: p.ID, Code: in.QRCode}
		if err := tx.QueryRow(ctx, insQR, reg.ID, p.ID, in.QRCode).Scan(&qr.ID, &qr.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("insert qr code for participant %d: %w", i, err)
		}
		qrs = append(qrs, qr)

		for _, wsID := range in.WorkshopIDs {
			if _, err := tx.Exec(ctx, insLink, p.ID, wsID, reg.ID); err != nil {
				return nil, nil, fmt.Errorf("insert workshop link: %w", err)
			}
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE registrations SET participant_ids = $2 WHERE id = $1`, reg.ID, reg.ParticipantIDs); err != nil {
		return nil, nil, fmt.Errorf("update participant ids: %w", err)
	}

	if params.Contact != nil {
		const insContact = `INSERT INTO contact_persons (registration_id, full_name, email, phone)
			VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, insContact, reg.ID, params.Contact.FullName, params.Contact.Email, params.Contact.Phone); err != nil {
			return nil, nil, fmt.Errorf("insert contact person: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return reg, qrs, nil
}

// SetPaymentAllocation stores the allocated final amount and increment.
func (r *Repository) SetPaymentAllocation(ctx context.Context, id uuid.UUID, finalAmount int64, increment int) error {
	const q = `UPDATE registrations SET final_amount = $2, unique_increment = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, finalAmount, increment)
	return err
}

// MarkFailed flags a registration whose payment could not be allocated.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE registrations SET status = 'failed', updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// SetSponsorLetterKey stores the uploaded sponsor letter's S3 key.
func (r *Repository) SetSponsorLetterKey(ctx context.Context, id uuid.UUID, key string) error {
	const q = `UPDATE registrations SET sponsor_letter_key = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, key)
	return err
}

// SetOrderDetails stores the order-details JSON snapshot.
func (r *Repository) SetOrderDetails(ctx context.Context, id uuid.UUID, details json.RawMessage) error {
	const q = `UPDATE registrations SET order_details = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, details)
	return err
}

const registrationColumns = `id, registration_no, status, total_amount, discount_amount, final_amount,
	unique_increment, promo_code, sponsor_letter_key, participant_ids, order_details, created_at, updated_at`

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.RegistrationNo, &reg.Status, &reg.TotalAmount, &reg.DiscountAmount,
		&reg.FinalAmount, &reg.UniqueIncrement, &reg.PromoCode, &reg.SponsorLetterKey,
		&reg.ParticipantIDs, &reg.OrderDetails, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &reg, nil
}

// GetByID returns a registration by ID, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return scanRegistration(r.pool.QueryRow(ctx, q, id))
}

// FindByNumber looks up a registration by user-supplied number: exact match
// first, then case-insensitive, then the normalized numeric fallback. All
// paths return the same row for the same registration.
func (r *Repository) FindByNumber(ctx context.Context, input string) (*models.Registration, error) {
	sel := `SELECT ` + registrationColumns + ` FROM registrations WHERE `

	reg, err := scanRegistration(r.pool.QueryRow(ctx, sel+`registration_no = $1`, input))
	if err != nil || reg != nil {
		return reg, err
	}

	reg, err = scanRegistration(r.pool.QueryRow(ctx, sel+`UPPER(registration_no) = UPPER(TRIM($1))`, input))
	if err != nil || reg != nil {
		return reg, err
	}

	normalized, ok := NormalizeRegistrationNo(input)
	if !ok {
		return nil, nil
	}
	return scanRegistration(r.pool.QueryRow(ctx, sel+`registration_no = $1`, normalized))
}

// GetDetail returns a registration joined with participants, the newest
// payment, contact person, QR codes, and per-participant workshops.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.RegistrationDetail, error) {
	reg, err := r.GetByID(ctx, id)
	if err != nil || reg == nil {
		return nil, err
	}

	detail := &models.RegistrationDetail{Registration: *reg}

	rows, err := r.pool.Query(ctx, `SELECT id, registration_id, full_name, email, phone, nik, category,
		institution, attend_symposium, checked_in_at, created_at
		FROM participants WHERE registration_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.RegistrationID, &p.FullName, &p.Email, &p.Phone, &p.NIK, &p.Category,
			&p.Institution, &p.AttendSymposium, &p.CheckedInAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		detail.Participants = append(detail.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const payQ = `SELECT id, registration_id, amount, increment, method, status, notes, verified_at, created_at, updated_at
		FROM payments WHERE registration_id = $1 ORDER BY created_at DESC LIMIT 1`
	var pay models.Payment
	err = r.pool.QueryRow(ctx, payQ, id).Scan(&pay.ID, &pay.RegistrationID, &pay.Amount, &pay.Increment,
		&pay.Method, &pay.Status, &pay.Notes, &pay.VerifiedAt, &pay.CreatedAt, &pay.UpdatedAt)
	if err == nil {
		detail.Payment = &pay
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	const contactQ = `SELECT id, registration_id, full_name, email, phone, created_at
		FROM contact_persons WHERE registration_id = $1`
	var contact models.ContactPerson
	err = r.pool.QueryRow(ctx, contactQ, id).Scan(&contact.ID, &contact.RegistrationID,
		&contact.FullName, &contact.Email, &contact.Phone, &contact.CreatedAt)
	if err == nil {
		detail.ContactPerson = &contact
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	qrRows, err := r.pool.Query(ctx, `SELECT id, registration_id, participant_id, code, image_url, created_at
		FROM participant_qr_codes WHERE registration_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer qrRows.Close()
	for qrRows.Next() {
		var qr models.ParticipantQRCode
		if err := qrRows.Scan(&qr.ID, &qr.RegistrationID, &qr.ParticipantID, &qr.Code, &qr.ImageURL, &qr.CreatedAt); err != nil {
			return nil, err
		}
		detail.QRCodes = append(detail.QRCodes, qr)
	}
	if err := qrRows.Err(); err != nil {
		return nil, err
	}

	wsRows, err := r.pool.Query(ctx, `SELECT wr.participant_id, w.id, w.title, w.price, w.capacity, w.active, w.created_at
		FROM workshop_registrations wr JOIN workshops w ON w.id = wr.workshop_id
		WHERE wr.registration_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer wsRows.Close()
	detail.Workshops = make(map[string][]models.Workshop)
	for wsRows.Next() {
		var participantID uuid.UUID
		var w models.Workshop
		if err := wsRows.Scan(&participantID, &w.ID, &w.Title, &w.Price, &w.Capacity, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		detail.Workshops[participantID.String()] = append(detail.Workshops[participantID.String()], w)
	}
	return detail, wsRows.Err()
}

// List returns registrations newest first, for the admin screen.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Registration, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT ` + registrationColumns + ` FROM registrations ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.RegistrationNo, &reg.Status, &reg.TotalAmount, &reg.DiscountAmount,
			&reg.FinalAmount, &reg.UniqueIncrement, &reg.PromoCode, &reg.SponsorLetterKey,
			&reg.ParticipantIDs, &reg.OrderDetails, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}
