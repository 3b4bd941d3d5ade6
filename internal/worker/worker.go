package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingscode/bootcamp-api/internal/models"
	"github.com/kingscode/bootcamp-api/internal/qrcode"
	"github.com/kingscode/bootcamp-api/internal/registrations"
	"github.com/kingscode/bootcamp-api/pkg/queue"
)

// Jobs is the queue side the processor consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// RegistrationGetter loads the registration a job refers to.
type RegistrationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
}

// EmailProcessor processes confirmation email jobs: load registration, rebuild QR, send, log.
type EmailProcessor struct {
	regs      RegistrationGetter
	qr        registrations.QREncoder
	mail      registrations.ConfirmationSender
	emailLogs registrations.EmailLogWriter
	jobs      Jobs
	logger    *zap.Logger
	backoff   time.Duration
}

// NewEmailProcessor creates a confirmation email processor. emailLogs may be nil.
func NewEmailProcessor(regs RegistrationGetter, qr registrations.QREncoder, mail registrations.ConfirmationSender,
	emailLogs registrations.EmailLogWriter, jobs Jobs, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{
		regs:      regs,
		qr:        qr,
		mail:      mail,
		emailLogs: emailLogs,
		jobs:      jobs,
		logger:    logger,
		backoff:   queue.RetryBackoff,
	}
}

// Process executes one email job. A registration that no longer exists drops the job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeConfirmationEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	reg, err := p.regs.GetByID(ctx, payload.RegistrationID)
	if err != nil {
		if errors.Is(err, registrations.ErrNotFound) {
			p.logger.Warn("registration gone; dropping email job", zap.String("job_id", job.ID), zap.String("registration_id", payload.RegistrationID.String()))
			return nil
		}
		return fmt.Errorf("load registration: %w", err)
	}

	name := registrations.FullName(reg.FirstName, reg.MiddleName, reg.LastName)
	png, err := qrcode.DecodeDataURL(reg.QRCode)
	if err != nil {
		// Stored code missing or unreadable: render it again from the registration.
		png, err = p.qr.Encode(qrcode.Payload(reg.ID.String(), name, reg.Course))
		if err != nil {
			return fmt.Errorf("encode qr: %w", err)
		}
	}

	emailType := payload.EmailType
	if emailType == "" {
		emailType = models.EmailTypeConfirmationResend
	}
	sendErr := p.mail.SendConfirmation(ctx, reg.Email, name, png)
	if p.emailLogs != nil {
		if err := p.emailLogs.Create(ctx, registrations.NewEmailLog(*reg, emailType, sendErr)); err != nil {
			p.logger.Warn("record email log failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		}
	}
	if sendErr != nil {
		return fmt.Errorf("send confirmation: %w", sendErr)
	}

	p.logger.Info("confirmation email sent",
		zap.String("job_id", job.ID),
		zap.String("registration_id", reg.ID.String()),
		zap.String("requested_by", payload.RequestedBy),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is cancelled.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
