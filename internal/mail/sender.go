// Package mail abstracts verification-email delivery. Actual delivery is an
// external collaborator; the default implementation only logs, which is
// enough for development and for tests.
package mail

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers a signup verification code to an address.
type Sender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// LogSender writes the code to the application log instead of sending it.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

var _ Sender = (*LogSender)(nil)

func (s *LogSender) SendVerificationCode(ctx context.Context, email, code string) error {
	s.log.Info("verification code issued",
		zap.String("email", email),
		zap.String("code", code),
	)
	return nil
}
