package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingscode/bootcamp-api/internal/mailer"
	"github.com/kingscode/bootcamp-api/internal/models"
	"github.com/kingscode/bootcamp-api/internal/qrcode"
)

// Store is the persistence the submission flow needs.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*models.Registration, error)
	Create(ctx context.Context, reg *models.Registration) error
	SetQRCode(ctx context.Context, id uuid.UUID, dataURL string) error
}

// QREncoder renders a payload as PNG bytes.
type QREncoder interface {
	Encode(content string) ([]byte, error)
}

// ConfirmationSender emails a registrant their QR code.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, to, name string, qrPNG []byte) error
}

// EmailLogWriter records confirmation email attempts.
type EmailLogWriter interface {
	Create(ctx context.Context, log *models.EmailLog) error
}

// Service runs the registration submission flow:
// lookup -> insert -> encode QR -> store data URL -> send mail. Steps run in order and are not rolled back.
// Cancellation of the caller's context is honoured only up to the insert.
type Service struct {
	store     Store
	qr        QREncoder
	mail      ConfirmationSender
	emailLogs EmailLogWriter
	logger    *zap.Logger
}

// NewService creates a registration service. emailLogs may be nil.
func NewService(store Store, qr QREncoder, mail ConfirmationSender, emailLogs EmailLogWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, qr: qr, mail: mail, emailLogs: emailLogs, logger: logger}
}

// Register persists reg, attaches its QR code and sends the confirmation email.
// It returns ErrEmailTaken for a duplicate email; any other error happened after validation.
func (s *Service) Register(ctx context.Context, reg models.Registration) (*models.RegistrationSummary, error) {
	_, err := s.store.GetByEmail(ctx, reg.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := s.store.Create(ctx, &reg); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}
	// The record exists from here on; a client disconnect must not strand it without QR code or email.
	ctx = context.WithoutCancel(ctx)

	name := FullName(reg.FirstName, reg.MiddleName, reg.LastName)
	png, err := s.qr.Encode(qrcode.Payload(reg.ID.String(), name, reg.Course))
	if err != nil {
		return nil, fmt.Errorf("registration %s: %w", reg.ID, err)
	}
	if err := s.store.SetQRCode(ctx, reg.ID, qrcode.DataURL(png)); err != nil {
		return nil, fmt.Errorf("registration %s: %w", reg.ID, err)
	}

	sendErr := s.mail.SendConfirmation(ctx, reg.Email, name, png)
	s.recordEmail(ctx, reg, models.EmailTypeRegistrationConfirmation, sendErr)
	if sendErr != nil {
		return nil, fmt.Errorf("registration %s: %w", reg.ID, sendErr)
	}

	return &models.RegistrationSummary{
		ID:     reg.ID,
		Name:   name,
		Email:  reg.Email,
		Course: reg.Course,
	}, nil
}

// recordEmail writes an email log entry; failures are logged and never change the caller's outcome.
func (s *Service) recordEmail(ctx context.Context, reg models.Registration, emailType string, sendErr error) {
	if s.emailLogs == nil {
		return
	}
	entry := NewEmailLog(reg, emailType, sendErr)
	if err := s.emailLogs.Create(ctx, entry); err != nil {
		s.logger.Warn("record email log failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
	}
}

// NewEmailLog builds the log entry for one confirmation attempt.
func NewEmailLog(reg models.Registration, emailType string, sendErr error) *models.EmailLog {
	entry := &models.EmailLog{
		RegistrationID: reg.ID,
		EmailType:      emailType,
		RecipientEmail: reg.Email,
		Subject:        mailer.ConfirmationSubject,
		Status:         models.EmailLogStatusSent,
	}
	if sendErr != nil {
		entry.Status = models.EmailLogStatusFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now()
		entry.SentAt = &now
	}
	return entry
}
