package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/jackieclzheng/AiBuildIp/pkg/config"
	"github.com/jackieclzheng/AiBuildIp/pkg/metrics"
)

// ResendSender sends emails using the Resend API.
type ResendSender struct {
	client     *resend.Client
	from       string
	recipients []string
	log        *zap.SugaredLogger
}

// NewResendSender creates a new Resend email sender.
func NewResendSender(apiKey string, smtp config.SMTP, log *zap.SugaredLogger) *ResendSender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	from := smtp.FromAddress()
	if smtp.FromName != "" {
		from = fmt.Sprintf("%s <%s>", smtp.FromName, from)
	}
	return &ResendSender{
		client:     resend.NewClient(apiKey),
		from:       from,
		recipients: smtp.Recipients,
		log:        log,
	}
}

func (s *ResendSender) Name() string { return config.TransportResend }

// Send sends an email using the Resend API.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      s.recipients,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.RunID != "" {
		params.Headers = map[string]string{RunHeader: msg.RunID}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		metrics.MailSendFailure.WithLabelValues(s.Name()).Inc()
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	metrics.MailSendSuccess.WithLabelValues(s.Name()).Inc()
	s.log.Infow("Mail sent", "receivers", len(s.recipients), "id", sent.Id)
	return nil
}
