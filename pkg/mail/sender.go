package mail

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jackieclzheng/AiBuildIp/pkg/config"
)

// NewSender builds the sender for the configured transport. The config must
// already have passed ValidateMail.
func NewSender(cfg *config.Config, log *zap.SugaredLogger) (Sender, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.Named("mail")
	switch cfg.Transport {
	case config.TransportSMTP, "":
		return NewSMTPSender(cfg.SMTP, log), nil
	case config.TransportResend:
		return NewResendSender(cfg.Resend.APIKey, cfg.SMTP, log), nil
	case config.TransportLog:
		return NewLogSender(log), nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
}
