package catalog

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/pkg/response"
)

// Handler serves the public catalog endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// ListTickets handles GET /api/tickets.
func (h *Handler) ListTickets(c *gin.Context) {
	list, err := h.repo.ListTickets(c.Request.Context())
	if err != nil {
		h.logger.Error("list tickets failed", zap.Error(err))
		response.Internal(c, "failed to list tickets")
		return
	}
	response.OK(c, list)
}

// ListWorkshops handles GET /api/workshops.
func (h *Handler) ListWorkshops(c *gin.Context) {
	list, err := h.repo.ListWorkshops(c.Request.Context())
	if err != nil {
		h.logger.Error("list workshops failed", zap.Error(err))
		response.Internal(c, "failed to list workshops")
		return
	}
	response.OK(c, list)
}
