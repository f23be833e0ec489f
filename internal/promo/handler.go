package promo

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/pkg/response"
)

// CheckRequest is the body for POST /api/check-promo.
type CheckRequest struct {
	Code        string   `json:"code" binding:"required"`
	TotalAmount int64    `json:"total_amount" binding:"required,min=0"`
	Categories  []string `json:"categories"`
}

// Handler previews promo codes for the registration form.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a promo handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Check handles POST /api/check-promo. It evaluates without redeeming, so
// the form can show the discount before submit.
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	p, err := h.repo.GetByCode(c.Request.Context(), req.Code)
	if err != nil {
		h.logger.Error("promo lookup failed", zap.Error(err), zap.String("code", req.Code))
		response.Internal(c, "failed to check promo code")
		return
	}
	response.OK(c, Evaluate(p, req.TotalAmount, req.Categories, time.Now()))
}
