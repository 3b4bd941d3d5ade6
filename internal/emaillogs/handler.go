package emaillogs

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingscode/bootcamp-api/internal/middleware"
	"github.com/kingscode/bootcamp-api/internal/models"
	"github.com/kingscode/bootcamp-api/internal/registrations"
	"github.com/kingscode/bootcamp-api/pkg/queue"
	"github.com/kingscode/bootcamp-api/pkg/response"
)

// LogReader lists the email history of a registration.
type LogReader interface {
	ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*models.EmailLog, error)
}

// RegistrationGetter resolves the registration a request targets.
type RegistrationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
}

// Enqueuer hands resend jobs to the email worker.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) (string, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	logs   LogReader
	regs   RegistrationGetter
	queue  Enqueuer
	logger *zap.Logger
}

// NewHandler creates an email logs handler. A nil queue makes Resend answer 503.
func NewHandler(logs LogReader, regs RegistrationGetter, q Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logs: logs, regs: regs, queue: q, logger: logger}
}

// ListByRegistration handles GET /api/registrations/:id/emails.
func (h *Handler) ListByRegistration(c *gin.Context) {
	reg, ok := h.registration(c)
	if !ok {
		return
	}
	logs, err := h.logs.ListByRegistration(c.Request.Context(), reg.ID)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		response.Internal(c, "failed to load email logs")
		return
	}
	if logs == nil {
		logs = []*models.EmailLog{}
	}
	response.OK(c, logs)
}

// Resend handles POST /api/registrations/:id/emails/resend. The confirmation is rebuilt and sent by the worker.
func (h *Handler) Resend(c *gin.Context) {
	if h.queue == nil {
		response.ServiceUnavailable(c, "email queue not configured")
		return
	}
	reg, ok := h.registration(c)
	if !ok {
		return
	}
	jobID, err := h.queue.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
		EmailType:      models.EmailTypeConfirmationResend,
		RegistrationID: reg.ID,
		RequestedBy:    c.GetString(middleware.ContextStaffUsername),
	})
	if err != nil {
		h.logger.Error("enqueue resend failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		response.Internal(c, "failed to queue email")
		return
	}
	h.logger.Info("confirmation resend queued", zap.String("job_id", jobID), zap.String("registration_id", reg.ID.String()))
	response.Accepted(c, "resend queued")
}

func (h *Handler) registration(c *gin.Context) (*models.Registration, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return nil, false
	}
	reg, err := h.regs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, registrations.ErrNotFound) {
			response.NotFound(c, "registration not found")
			return nil, false
		}
		h.logger.Error("get registration failed", zap.Error(err), zap.String("registration_id", id.String()))
		response.Internal(c, "failed to load registration")
		return nil, false
	}
	return reg, true
}
