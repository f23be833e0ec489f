package registrations

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcvu-symposium/backend/internal/captcha"
	"github.com/mcvu-symposium/backend/internal/payments"
	"github.com/mcvu-symposium/backend/pkg/response"
	"github.com/mcvu-symposium/backend/pkg/storage"
)

// Handler handles registration HTTP endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	captcha *captcha.Verifier
	storage *storage.S3
	logger  *zap.Logger
}

// NewHandler creates a registrations handler. s3 may be nil; the sponsor
// letter endpoint then reports storage as unavailable.
func NewHandler(service *Service, repo *Repository, verifier *captcha.Verifier, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, repo: repo, captcha: verifier, storage: s3, logger: logger}
}

// Register handles POST /api/register. Accepts JSON, or multipart form-data
// with the JSON payload in the "payload" field and the sponsor letter in
// "sponsor_letter".
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	var sponsor *SponsorFile

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		payload := c.PostForm("payload")
		if payload == "" {
			response.BadRequest(c, "missing payload field")
			return
		}
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			response.BadRequest(c, "invalid payload: "+err.Error())
			return
		}
		if err := binding.Validator.ValidateStruct(&req); err != nil {
			response.BadRequest(c, "invalid payload: "+err.Error())
			return
		}

		fileHeader, err := c.FormFile("sponsor_letter")
		if err == nil && fileHeader != nil {
			if fileHeader.Size > storage.MaxSponsorFileSize {
				response.BadRequest(c, "sponsor letter exceeds 5MB")
				return
			}
			contentType := fileHeader.Header.Get("Content-Type")
			if !storage.ValidateSponsorFileType(contentType, fileHeader.Filename) {
				response.BadRequest(c, "sponsor letter must be a PDF, JPG, or PNG")
				return
			}
			f, err := fileHeader.Open()
			if err != nil {
				response.BadRequest(c, "cannot read sponsor letter")
				return
			}
			defer f.Close()
			sponsor = &SponsorFile{
				Filename:    fileHeader.Filename,
				ContentType: storage.ContentTypeForFilename(fileHeader.Filename),
				Body:        f,
			}
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	if err := h.captcha.Verify(c.Request.Context(), req.CaptchaToken, c.ClientIP()); err != nil {
		if errors.Is(err, captcha.ErrVerificationFailed) {
			response.Forbidden(c, "captcha verification failed")
			return
		}
		h.logger.Error("captcha provider unreachable", zap.Error(err))
		response.Internal(c, "captcha verification unavailable")
		return
	}

	result, err := h.service.Register(c.Request.Context(), req, sponsor)
	if err != nil {
		if errors.Is(err, payments.ErrAllocationExhausted) {
			h.logger.Error("payment amount allocation exhausted")
			response.Internal(c, "could not allocate a payment amount, please retry")
			return
		}
		h.logger.Error("registration failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}
	response.Created(c, result)
}

// CheckRegistration handles GET and POST /api/check-registration. Lookup by
// formatted number with case-insensitive and numeric fallbacks.
func (h *Handler) CheckRegistration(c *gin.Context) {
	number := c.Query("registration_no")
	if number == "" && c.Request.Method == "POST" {
		var body struct {
			RegistrationNo string `json:"registration_no"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			number = body.RegistrationNo
		}
	}
	if strings.TrimSpace(number) == "" {
		response.BadRequest(c, "registration_no is required")
		return
	}

	reg, err := h.repo.FindByNumber(c.Request.Context(), number)
	if err != nil {
		h.logger.Error("registration lookup failed", zap.Error(err), zap.String("input", number))
		response.Internal(c, "failed to look up registration")
		return
	}
	if reg == nil {
		response.NotFound(c, "registration not found")
		return
	}

	detail, err := h.repo.GetDetail(c.Request.Context(), reg.ID)
	if err != nil || detail == nil {
		h.logger.Error("registration detail failed", zap.Error(err), zap.String("registration_no", reg.RegistrationNo))
		response.Internal(c, "failed to load registration")
		return
	}
	response.OK(c, detail)
}

// GetByID handles GET /api/registrations/:id. Unknown or malformed ids
// return a placeholder object with status "unknown" rather than a 404, so
// polling clients keep a stable shape.
func (h *Handler) GetByID(c *gin.Context) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		response.OK(c, FallbackRegistration(raw))
		return
	}

	detail, err := h.repo.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("registration detail failed", zap.Error(err), zap.String("id", raw))
		response.Internal(c, "failed to load registration")
		return
	}
	if detail == nil {
		response.OK(c, FallbackRegistration(raw))
		return
	}
	response.OK(c, detail)
}

// SponsorLetter handles GET /api/admin/registrations/:id/sponsor-letter.
// Returns a short-lived presigned download URL for the stored letter.
func (h *Handler) SponsorLetter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	if h.storage == nil {
		response.Internal(c, "object storage is not configured")
		return
	}

	reg, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("registration lookup failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "failed to load registration")
		return
	}
	if reg == nil {
		response.NotFound(c, "registration not found")
		return
	}
	if reg.SponsorLetterKey == "" {
		response.NotFound(c, "no sponsor letter on file")
		return
	}

	url, err := h.storage.GeneratePresignedDownloadURL(c.Request.Context(), h.storage.SponsorBucket(), reg.SponsorLetterKey, h.storage.PresignExpire())
	if err != nil {
		h.logger.Error("presign sponsor letter failed", zap.Error(err), zap.String("key", reg.SponsorLetterKey))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{
		"download_url": url,
		"expires_in":   int(h.storage.PresignExpire().Seconds()),
	})
}

// List handles GET /api/admin/registrations.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// FallbackRegistration is the placeholder returned when an id resolves to
// nothing. Core fields are present and zeroed; Status is "unknown".
func FallbackRegistration(id string) gin.H {
	return gin.H{
		"id":              id,
		"registration_no": "",
		"status":          "unknown",
		"total_amount":    0,
		"discount_amount": 0,
		"final_amount":    0,
		"participants":    []interface{}{},
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
