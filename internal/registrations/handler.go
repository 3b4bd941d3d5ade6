package registrations

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingscode/bootcamp-api/internal/courses"
	"github.com/kingscode/bootcamp-api/internal/models"
	"github.com/kingscode/bootcamp-api/internal/qrcode"
	"github.com/kingscode/bootcamp-api/pkg/response"
)

const (
	msgRegistered     = "Registration successful! Confirmation email sent."
	msgMissingFields  = "All required fields must be provided."
	msgAlreadyExists  = "This email is already registered."
	msgServerError    = "Server error. Please try again later."
	msgInvalidRequest = "Invalid request body."

	defaultListLimit = 50
	maxListLimit     = 500
)

// Reader is the read side used by staff endpoints.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	List(ctx context.Context, f ListFilter) ([]models.Registration, error)
	CountByCourse(ctx context.Context) ([]models.CourseCount, error)
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	reader Reader
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, reader Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, reader: reader, logger: logger}
}

// Register handles POST /api/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, msgInvalidRequest)
		return
	}

	reg, err := req.Registration()
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.Is(err, ErrMissingFields):
			response.BadRequest(c, msgMissingFields)
		case errors.As(err, &vErr):
			response.BadRequest(c, vErr.Message)
		default:
			response.BadRequest(c, msgInvalidRequest)
		}
		return
	}

	summary, err := h.svc.Register(c.Request.Context(), reg)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.BadRequest(c, msgAlreadyExists)
			return
		}
		h.logger.Error("registration failed", zap.Error(err), zap.String("course", reg.Course))
		response.Internal(c, msgServerError)
		return
	}

	response.Created(c, msgRegistered, summary)
}

// List handles GET /api/registrations?course=&limit=&offset=. Rows are returned without their QR code.
func (h *Handler) List(c *gin.Context) {
	f := ListFilter{Course: c.Query("course"), Limit: defaultListLimit}
	if f.Course != "" && !courses.Valid(f.Course) {
		response.BadRequest(c, "unknown course")
		return
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			response.BadRequest(c, "limit must be between 1 and 500")
			return
		}
		f.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(c, "offset must be a non-negative integer")
			return
		}
		f.Offset = n
	}

	list, err := h.reader.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to load registrations")
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	// QR codes are served one at a time by /:id/qrcode.
	for i := range list {
		list[i].QRCode = ""
	}
	response.OK(c, list)
}

// Get handles GET /api/registrations/:id.
func (h *Handler) Get(c *gin.Context) {
	reg, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, reg)
}

// QRCode handles GET /api/registrations/:id/qrcode and serves the stored PNG.
func (h *Handler) QRCode(c *gin.Context) {
	reg, ok := h.load(c)
	if !ok {
		return
	}
	if reg.QRCode == "" {
		response.NotFound(c, "qr code not generated")
		return
	}
	png, err := qrcode.DecodeDataURL(reg.QRCode)
	if err != nil {
		h.logger.Error("decode stored qr code failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		response.Internal(c, "failed to read qr code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Stats handles GET /api/registrations/stats.
func (h *Handler) Stats(c *gin.Context) {
	counts, err := h.reader.CountByCourse(c.Request.Context())
	if err != nil {
		h.logger.Error("count registrations failed", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	total := 0
	for _, cc := range counts {
		total += cc.Total
	}
	if counts == nil {
		counts = []models.CourseCount{}
	}
	response.OK(c, gin.H{"total": total, "courses": counts})
}

func (h *Handler) load(c *gin.Context) (*models.Registration, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return nil, false
	}
	reg, err := h.reader.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "registration not found")
			return nil, false
		}
		h.logger.Error("get registration failed", zap.Error(err), zap.String("registration_id", id.String()))
		response.Internal(c, "failed to load registration")
		return nil, false
	}
	return reg, true
}
