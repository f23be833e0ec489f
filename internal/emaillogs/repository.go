// Package emaillogs records every outbound email attempt for the admin
// delivery audit trail.
package emaillogs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcvu-symposium/backend/internal/models"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending log row and returns its id.
func (r *Repository) Create(ctx context.Context, registrationID *uuid.UUID, emailType, recipient, subject string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		INSERT INTO email_logs (registration_id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		registrationID, emailType, recipient, subject, models.EmailLogStatusPending,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert email log: %w", err)
	}
	return id, nil
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE email_logs SET status = $1, sent_at = NOW(), error_message = NULL
		WHERE id = $2`,
		models.EmailLogStatusSent, id)
	if err != nil {
		return fmt.Errorf("mark email log sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery with the error text.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, sendErr error) error {
	msg := ""
	if sendErr != nil {
		msg = sendErr.Error()
	}
	_, err := r.db.Exec(ctx, `
		UPDATE email_logs SET status = $1, error_message = $2
		WHERE id = $3`,
		models.EmailLogStatusFailed, msg, id)
	if err != nil {
		return fmt.Errorf("mark email log failed: %w", err)
	}
	return nil
}

// List returns recent log rows, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]models.EmailLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, registration_id, email_type, recipient_email,
		       COALESCE(subject, ''), status, sent_at, COALESCE(error_message, ''), created_at
		FROM email_logs
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.EmailLog, 0)
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.RegistrationID, &l.EmailType, &l.RecipientEmail,
			&l.Subject, &l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
