package qrcodes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/pkg/response"
)

// CheckInRequest is the body for POST /api/admin/check-in.
type CheckInRequest struct {
	QRCode string `json:"qr_code" binding:"required"`
}

// Handler handles check-in endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a qrcodes handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CheckIn handles POST /api/admin/check-in.
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	res, err := h.repo.CheckIn(c.Request.Context(), req.QRCode)
	if err != nil {
		h.logger.Error("check-in failed", zap.Error(err), zap.String("code", req.QRCode))
		response.Internal(c, "failed to check in")
		return
	}
	if res == nil {
		response.NotFound(c, "unknown check-in code")
		return
	}
	response.OK(c, res)
}
