// Package notify is the outbound notification boundary. The engine itself
// never sends anything; the follow-up delivery step only checks the sent
// flag that callers of this package record in the payload.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers a message to a recipient and reports whether it was sent.
type Sender interface {
	Notify(ctx context.Context, recipient, message string) (bool, error)
}

// LogSender records notifications in the application log. Stands in for a
// real mail/IM gateway in development and tests.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Notify logs the message and reports it sent.
func (s *LogSender) Notify(ctx context.Context, recipient, message string) (bool, error) {
	s.logger.Info("Notification sent",
		zap.String("recipient", recipient),
		zap.String("message", message))
	return true, nil
}
