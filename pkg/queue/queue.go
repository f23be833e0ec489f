package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueQRImages is the Redis list key for QR image render jobs.
	QueueQRImages = "worker:qr_images"
	// QueueEmails is the Redis list key for invoice/receipt email jobs.
	QueueEmails = "worker:emails"
	// QueueSnapshots is the Redis list key for order-detail snapshot jobs.
	QueueSnapshots = "worker:snapshots"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeQRImage       JobType = "qr_image"
	JobTypeInvoiceEmail  JobType = "invoice_email"
	JobTypeReceiptEmail  JobType = "receipt_email"
	JobTypeOrderSnapshot JobType = "order_snapshot"
)

// QRImagePayload is the payload for QR image render jobs.
type QRImagePayload struct {
	QRCodeID       uuid.UUID `json:"qr_code_id"`
	RegistrationID uuid.UUID `json:"registration_id"`
	ParticipantID  uuid.UUID `json:"participant_id"`
	Code           string    `json:"code"`
}

// EmailPayload is the payload for invoice and receipt email jobs.
type EmailPayload struct {
	RegistrationID uuid.UUID `json:"registration_id"`
}

// SnapshotPayload is the payload for order-detail snapshot jobs.
type SnapshotPayload struct {
	RegistrationID uuid.UUID `json:"registration_id"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis lists.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// queueFor maps a job type to its Redis list.
func queueFor(t JobType) string {
	switch t {
	case JobTypeQRImage:
		return QueueQRImages
	case JobTypeInvoiceEmail, JobTypeReceiptEmail:
		return QueueEmails
	case JobTypeOrderSnapshot:
		return QueueSnapshots
	}
	return QueueDLQ
}

// Enqueue marshals payload and pushes a job onto the queue for its type.
func (q *Queue) Enqueue(ctx context.Context, jobType JobType, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, queueFor(jobType), raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(jobType)))
	return nil
}

// EnqueueQRImage enqueues a QR image render job.
func (q *Queue) EnqueueQRImage(ctx context.Context, payload QRImagePayload) error {
	return q.Enqueue(ctx, JobTypeQRImage, payload)
}

// EnqueueInvoiceEmail enqueues an invoice email job.
func (q *Queue) EnqueueInvoiceEmail(ctx context.Context, registrationID uuid.UUID) error {
	return q.Enqueue(ctx, JobTypeInvoiceEmail, EmailPayload{RegistrationID: registrationID})
}

// EnqueueReceiptEmail enqueues a payment-verified receipt email job.
func (q *Queue) EnqueueReceiptEmail(ctx context.Context, registrationID uuid.UUID) error {
	return q.Enqueue(ctx, JobTypeReceiptEmail, EmailPayload{RegistrationID: registrationID})
}

// EnqueueOrderSnapshot enqueues an order-detail snapshot job.
func (q *Queue) EnqueueOrderSnapshot(ctx context.Context, registrationID uuid.UUID) error {
	return q.Enqueue(ctx, JobTypeOrderSnapshot, SnapshotPayload{RegistrationID: registrationID})
}

// Dequeue blocks until a job is available on any worker queue or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, 0, QueueQRImages, QueueEmails, QueueSnapshots).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, queueFor(job.Type), raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
