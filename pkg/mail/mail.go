package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/jackieclzheng/AiBuildIp/pkg/config"
	"github.com/jackieclzheng/AiBuildIp/pkg/metrics"
)

// Message is one rendered digest ready for delivery.
type Message struct {
	Subject string
	// Text is the Markdown body; HTML is an optional alternative part.
	Text  string
	HTML  string
	RunID string
}

// Sender delivers a message. Failures are returned as-is; senders never retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// RunHeader carries the run identifier on SMTP messages.
const RunHeader = "X-Digest-Run"

// SMTPSender sends through one SMTP server. Port 465 uses implicit TLS.
type SMTPSender struct {
	dialer     *gomail.Dialer
	from       string
	fromName   string
	recipients []string
	log        *zap.SugaredLogger
}

func NewSMTPSender(cfg config.SMTP, log *zap.SugaredLogger) *SMTPSender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log.Debugw("Initializing SMTP sender", "host", cfg.Host, "port", cfg.Port, "user", cfg.Username)
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.InsecureSkipVerify {
		log.Warnw("InsecureSkipVerify is enabled for mail TLS connection", "host", cfg.Host)
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host} // #nosec G402 -- opt-in via config
	}
	return &SMTPSender{
		dialer:     d,
		from:       cfg.FromAddress(),
		fromName:   cfg.FromName,
		recipients: cfg.Recipients,
		log:        log,
	}
}

func (s *SMTPSender) Name() string { return config.TransportSMTP }

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Debugw("Preparing to send mail", "receivers", len(s.recipients), "subject", msg.Subject)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", s.recipients...)
	m.SetHeader("Subject", msg.Subject)
	if msg.RunID != "" {
		m.SetHeader(RunHeader, msg.RunID)
	}
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		metrics.MailSendFailure.WithLabelValues(s.Name()).Inc()
		return fmt.Errorf("smtp send via %s:%d: %w", s.dialer.Host, s.dialer.Port, err)
	}
	metrics.MailSendSuccess.WithLabelValues(s.Name()).Inc()
	s.log.Infow("Mail sent", "receivers", len(s.recipients), "host", s.dialer.Host)
	return nil
}

func (s *SMTPSender) GetHost() string {
	return s.dialer.Host
}

func (s *SMTPSender) GetPort() int {
	return s.dialer.Port
}
