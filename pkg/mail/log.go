package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/jackieclzheng/AiBuildIp/pkg/config"
	"github.com/jackieclzheng/AiBuildIp/pkg/metrics"
)

// LogSender logs messages instead of sending them.
// Useful for development and testing.
type LogSender struct {
	log *zap.SugaredLogger
}

func NewLogSender(log *zap.SugaredLogger) *LogSender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Name() string { return config.TransportLog }

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Infow("Mail not sent (log transport)", "subject", msg.Subject, "run", msg.RunID, "body", msg.Text)
	metrics.MailSendSuccess.WithLabelValues(s.Name()).Inc()
	return nil
}
