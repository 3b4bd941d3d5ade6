// Package mailer sends registration confirmation emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/kingscode/bootcamp-api/config"
)

const (
	// ConfirmationSubject is the subject line of every confirmation email.
	ConfirmationSubject = "Bootcamp Registration Confirmation"
	// QRContentID is referenced from the HTML body as cid:qrcode.
	QRContentID = "qrcode"
	qrFilename  = "qrcode.png"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Registration Confirmed!</h2>
<p>Hi {{.Name}},</p>
<p>Thank you for registering for our bootcamp. Your registration has been confirmed.</p>
<p>Please save the QR code below - you'll need it for check-in:</p>
<img src="cid:{{.ContentID}}" alt="Your QR Code" />
<p>Best regards,<br>{{.Team}}</p>
`))

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer composes and sends confirmation emails.
type Mailer struct {
	sender   Sender
	from     string
	fromName string
	logger   *zap.Logger
}

// New creates a Mailer backed by an SMTP dialer built from cfg.
func New(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	return NewWithSender(d, cfg.FromAddress, cfg.FromName, logger)
}

// NewWithSender creates a Mailer over an arbitrary Sender.
func NewWithSender(sender Sender, from, fromName string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{sender: sender, from: from, fromName: fromName, logger: logger}
}

// BuildConfirmation composes the confirmation message with qrPNG embedded inline.
func (m *Mailer) BuildConfirmation(to, name string, qrPNG []byte) (*gomail.Message, error) {
	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, struct {
		Name      string
		ContentID string
		Team      string
	}{Name: name, ContentID: QRContentID, Team: m.fromName})
	if err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}

	msg := gomail.NewMessage()
	if m.fromName != "" {
		msg.SetAddressHeader("From", m.from, m.fromName)
	} else {
		msg.SetHeader("From", m.from)
	}
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", ConfirmationSubject)
	msg.SetBody("text/html", body.String())
	msg.Embed(qrFilename,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(qrPNG)
			return err
		}),
		gomail.SetHeader(map[string][]string{
			"Content-ID":   {"<" + QRContentID + ">"},
			"Content-Type": {"image/png"},
		}),
	)
	return msg, nil
}

// SendConfirmation emails the registrant their QR code.
func (m *Mailer) SendConfirmation(ctx context.Context, to, name string, qrPNG []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.BuildConfirmation(to, name, qrPNG)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	m.logger.Info("confirmation email sent", zap.String("to", MaskEmail(to)))
	return nil
}

// MaskEmail keeps the first character of the local part and the domain, e.g. a***@example.com.
func MaskEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 1 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}
