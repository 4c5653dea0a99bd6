package mail

import "go.uber.org/zap"

// ConsoleSender logs messages instead of delivering them. Used in development
// and whenever no SendGrid key is configured.
type ConsoleSender struct {
	logger *zap.Logger
}

// NewConsoleSender builds a logging-only sender.
func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSender{logger: logger}
}

// Send logs the message fields.
func (s *ConsoleSender) Send(msg Message) error {
	s.logger.Info("email (console)",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
