package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"newsagent/internal/digest"
)

// DeliveryError wraps a sender failure for one recipient.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %q: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

var errNoRecipient = errors.New("no recipient")

type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends rendered digests over SMTP.
type Mailer struct {
	cfg    MailerConfig
	logger *slog.Logger
}

func NewMailer(cfg MailerConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: logger.With("component", "mailer"),
	}
}

func (m *Mailer) Send(ctx context.Context, msg digest.Message) error {
	if msg.To == "" {
		return &DeliveryError{Recipient: msg.To, Err: errNoRecipient}
	}

	email, err := m.buildMessage(msg)
	if err != nil {
		return &DeliveryError{Recipient: msg.To, Err: err}
	}

	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return &DeliveryError{Recipient: msg.To, Err: fmt.Errorf("create smtp client: %w", err)}
	}

	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return &DeliveryError{Recipient: msg.To, Err: fmt.Errorf("send mail: %w", err)}
	}

	m.logger.Info("mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (m *Mailer) buildMessage(msg digest.Message) (*mail.Msg, error) {
	email := mail.NewMsg()
	if err := email.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := email.To(msg.To); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return email, nil
}

func (m *Mailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}
