// Package worker processes background jobs from the Redis queue: QR image
// rendering, invoice and receipt emails, and order-detail snapshots.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/config"
	"github.com/mcvu-symposium/backend/internal/catalog"
	"github.com/mcvu-symposium/backend/internal/emaillogs"
	"github.com/mcvu-symposium/backend/internal/models"
	"github.com/mcvu-symposium/backend/internal/notifications"
	"github.com/mcvu-symposium/backend/internal/qrcodes"
	"github.com/mcvu-symposium/backend/internal/registrations"
	"github.com/mcvu-symposium/backend/pkg/queue"
	"github.com/mcvu-symposium/backend/pkg/storage"
)

// Processor consumes jobs and runs them to completion, retrying failures
// until they land in the dead-letter queue.
type Processor struct {
	queue   *queue.Queue
	regs    *registrations.Repository
	qrcodes *qrcodes.Repository
	catalog *catalog.Repository
	logs    *emaillogs.Repository
	mailer  *notifications.Mailer
	store   *storage.S3 // nil when object storage is disabled
	qrAPI   config.QRAPIConfig
	client  *http.Client
	logger  *zap.Logger
}

func NewProcessor(
	q *queue.Queue,
	regs *registrations.Repository,
	qrRepo *qrcodes.Repository,
	cat *catalog.Repository,
	logs *emaillogs.Repository,
	mailer *notifications.Mailer,
	store *storage.S3,
	qrAPI config.QRAPIConfig,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		queue:   q,
		regs:    regs,
		qrcodes: qrRepo,
		catalog: cat,
		logs:    logs,
		mailer:  mailer,
		store:   store,
		qrAPI:   qrAPI,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Run consumes jobs until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("worker started")
	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("worker stopping")
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		start := time.Now()
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed",
				zap.String("job_id", job.ID),
				zap.String("type", string(job.Type)),
				zap.Int("attempt", job.Attempt),
				zap.Error(err))
			if rerr := p.queue.Retry(ctx, job); rerr != nil {
				p.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(rerr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
		p.logger.Info("job done",
			zap.String("job_id", job.ID),
			zap.String("type", string(job.Type)),
			zap.Duration("took", time.Since(start)))
	}
}

// Process dispatches one job by type.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeQRImage:
		var payload queue.QRImagePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode qr payload: %w", err)
		}
		return p.processQRImage(ctx, payload)
	case queue.JobTypeInvoiceEmail:
		var payload queue.EmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return p.processEmail(ctx, payload.RegistrationID, models.EmailTypeInvoice)
	case queue.JobTypeReceiptEmail:
		var payload queue.EmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return p.processEmail(ctx, payload.RegistrationID, models.EmailTypeReceipt)
	case queue.JobTypeOrderSnapshot:
		var payload queue.SnapshotPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode snapshot payload: %w", err)
		}
		return p.processSnapshot(ctx, payload.RegistrationID)
	}
	return fmt.Errorf("unknown job type %q", job.Type)
}

// processQRImage renders the code through the external QR API and stores the
// image in object storage, then records the public URL on the qr_codes row.
func (p *Processor) processQRImage(ctx context.Context, payload queue.QRImagePayload) error {
	if p.store == nil {
		return errors.New("object storage disabled, cannot store qr image")
	}

	endpoint := fmt.Sprintf("%s?data=%s&size=%dx%d",
		strings.TrimRight(p.qrAPI.BaseURL, "?"),
		url.QueryEscape(payload.Code),
		p.qrAPI.Size, p.qrAPI.Size)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build qr request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("qr api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qr api returned status %d", resp.StatusCode)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read qr image: %w", err)
	}
	if len(img) == 0 {
		return errors.New("qr api returned empty image")
	}

	key := storage.QRImageKey(payload.Code)
	publicURL, err := p.store.Upload(ctx, p.store.QRBucket(), key, "image/png", bytes.NewReader(img), true)
	if err != nil {
		return fmt.Errorf("upload qr image: %w", err)
	}
	if err := p.qrcodes.SetImageURL(ctx, payload.QRCodeID, publicURL); err != nil {
		return err
	}
	p.logger.Info("qr image stored",
		zap.String("code", payload.Code),
		zap.String("registration_id", payload.RegistrationID.String()))
	return nil
}

// processEmail builds the invoice or receipt for a registration and sends it
// to the billing contact, recording the attempt in email_logs.
func (p *Processor) processEmail(ctx context.Context, registrationID uuid.UUID, emailType string) error {
	detail, err := p.regs.GetDetail(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("load registration: %w", err)
	}
	if detail == nil {
		p.logger.Warn("registration gone, dropping email job",
			zap.String("registration_id", registrationID.String()))
		return nil
	}
	tickets, err := p.catalog.TicketPrices(ctx)
	if err != nil {
		return fmt.Errorf("load ticket prices: %w", err)
	}
	bank, err := p.catalog.ActiveBankAccount(ctx)
	if err != nil {
		p.logger.Warn("no active bank account for invoice", zap.Error(err))
	}

	data := notifications.BuildInvoiceData(detail, tickets, bank)
	if emailType == models.EmailTypeReceipt {
		data.Paid = true
	}
	if data.RecipientEmail == "" {
		// nothing to send to; do not retry
		p.logger.Warn("registration has no recipient email",
			zap.String("registration_id", registrationID.String()))
		return nil
	}

	html, err := notifications.BuildInvoiceHTML(data)
	if err != nil {
		return err
	}
	pdf, err := notifications.BuildInvoicePDF(data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s %s — MCVU Symposium", data.Title(), data.RegistrationNo)
	logID, err := p.logs.Create(ctx, &detail.Registration.ID, emailType, data.RecipientEmail, subject)
	if err != nil {
		p.logger.Error("create email log failed", zap.Error(err))
	}

	sendErr := p.mailer.Send(ctx, notifications.Message{
		To:      data.RecipientEmail,
		ToName:  data.RecipientName,
		Subject: subject,
		HTML:    html,
		Attachments: []notifications.Attachment{{
			Filename:    emailType + "-" + data.RegistrationNo + ".pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	})
	if logID != uuid.Nil {
		if sendErr != nil {
			_ = p.logs.MarkFailed(ctx, logID, sendErr)
		} else {
			_ = p.logs.MarkSent(ctx, logID)
		}
	}
	if sendErr != nil {
		return fmt.Errorf("send %s email: %w", emailType, sendErr)
	}
	return nil
}

// processSnapshot persists the denormalized order details onto the
// registration row for fast lookups.
func (p *Processor) processSnapshot(ctx context.Context, registrationID uuid.UUID) error {
	detail, err := p.regs.GetDetail(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("load registration: %w", err)
	}
	if detail == nil {
		return nil
	}
	snapshot, err := registrations.BuildOrderDetails(detail)
	if err != nil {
		return err
	}
	return p.regs.SetOrderDetails(ctx, registrationID, snapshot)
}
