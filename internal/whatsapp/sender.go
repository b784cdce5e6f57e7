// Package whatsapp sends outbound WhatsApp messages. The real gateway lives
// behind the Sender interface so the rest of the system never couples to a
// provider SDK.
package whatsapp

import (
	"context"

	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// Sender delivers one text message to a phone number.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}

// LogSender records outbound messages instead of delivering them. Used in
// development and wherever no gateway is configured.
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender builds a sender that only logs.
func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendText(ctx context.Context, phone, text string) error {
	s.logger.Info("whatsapp message dispatched", "phone", phone, "chars", len(text))
	return nil
}
