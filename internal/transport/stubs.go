package transport

import (
	"context"

	"go.uber.org/zap"

	"github.com/connecta/citizen-service/internal/domain"
)

// LoggingSMSSender records SMS deliveries without an upstream gateway.
// It succeeds unconditionally so the dispatch counters stay meaningful
// until a carrier integration lands.
type LoggingSMSSender struct {
	logger *zap.Logger
}

// NewLoggingSMSSender creates the stub sender.
func NewLoggingSMSSender(logger *zap.Logger) *LoggingSMSSender {
	return &LoggingSMSSender{logger: logger}
}

// Channel identifies this sender as the SMS transport.
func (s *LoggingSMSSender) Channel() domain.CommunicationChannel {
	return domain.ChannelSMS
}

// Send logs the delivery and reports success.
func (s *LoggingSMSSender) Send(_ context.Context, recipient domain.Recipient, msg Message) error {
	s.logger.Info("sms dispatched",
		zap.String("phone", recipient.Phone),
		zap.String("subject", msg.Subject))
	return nil
}

// LoggingPushSender records app notification deliveries without a push
// provider, mirroring LoggingSMSSender.
type LoggingPushSender struct {
	logger *zap.Logger
}

// NewLoggingPushSender creates the stub sender.
func NewLoggingPushSender(logger *zap.Logger) *LoggingPushSender {
	return &LoggingPushSender{logger: logger}
}

// Channel identifies this sender as the app notification transport.
func (s *LoggingPushSender) Channel() domain.CommunicationChannel {
	return domain.ChannelApp
}

// Send logs the delivery and reports success.
func (s *LoggingPushSender) Send(_ context.Context, recipient domain.Recipient, msg Message) error {
	s.logger.Info("app notification dispatched",
		zap.String("recipient", recipient.Name),
		zap.String("subject", msg.Subject))
	return nil
}
