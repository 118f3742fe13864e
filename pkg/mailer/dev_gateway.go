package mailer

import (
	"github.com/sirupsen/logrus"
)

// DevGateway logs email instead of sending it. Used outside production
// so the booking flow works without a mail provider.
type DevGateway struct {
	logger *logrus.Logger
}

// NewDevGateway creates a new development mail gateway
func NewDevGateway(logger *logrus.Logger) *DevGateway {
	return &DevGateway{logger: logger}
}

// Send logs the email
func (g *DevGateway) Send(to, subject, body string) error {
	g.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    body,
	}).Info("Email (dev mode, not sent)")

	return nil
}
