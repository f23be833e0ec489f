package payments

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/internal/models"
	"github.com/mcvu-symposium/backend/pkg/queue"
	"github.com/mcvu-symposium/backend/pkg/response"
)

// VerifyRequest is the body for POST /api/admin/payments/:id/verify.
type VerifyRequest struct {
	Status string `json:"status" binding:"required,oneof=verified rejected"`
	Notes  string `json:"notes"`
}

// Handler handles admin payment endpoints.
type Handler struct {
	repo   *Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewHandler creates a payments handler.
func NewHandler(repo *Repository, q *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, queue: q, logger: logger}
}

// Verify handles POST /api/admin/payments/:id/verify. A verified payment
// flips the registration to paid and queues a receipt email; a rejected one
// releases its amount for reuse.
func (h *Handler) Verify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	updated, err := h.repo.Verify(c.Request.Context(), id, req.Status, req.Notes)
	if err != nil {
		h.logger.Error("verify payment failed", zap.Error(err), zap.String("payment_id", id.String()))
		response.Internal(c, "failed to verify payment")
		return
	}
	if !updated {
		response.Conflict(c, "payment is not pending")
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || p == nil {
		h.logger.Error("reload payment failed", zap.Error(err), zap.String("payment_id", id.String()))
		response.Internal(c, "failed to load payment")
		return
	}

	if p.Status == models.PaymentStatusVerified {
		if err := h.queue.EnqueueReceiptEmail(c.Request.Context(), p.RegistrationID); err != nil {
			h.logger.Warn("enqueue receipt email failed", zap.Error(err), zap.String("registration_id", p.RegistrationID.String()))
		}
	}
	response.OK(c, p)
}

// ListPending handles GET /api/admin/payments.
func (h *Handler) ListPending(c *gin.Context) {
	list, err := h.repo.ListPending(c.Request.Context(), 50)
	if err != nil {
		h.logger.Error("list pending payments failed", zap.Error(err))
		response.Internal(c, "failed to list payments")
		return
	}
	response.OK(c, list)
}
