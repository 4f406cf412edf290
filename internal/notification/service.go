// internal/notification/service.go
// Transactional emails for customers

package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Service renders and sends customer emails
type Service struct {
	provider EmailProvider
	appName  string
	enabled  bool
	logger   *zap.Logger
}

// NewService creates a new notification service
func NewService(provider EmailProvider, appName string, enabled bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if appName == "" {
		appName = "Laundry"
	}
	return &Service{
		provider: provider,
		appName:  appName,
		enabled:  enabled,
		logger:   logger,
	}
}

// SendWelcome greets a newly verified customer
func (s *Service) SendWelcome(ctx context.Context, email, username string) error {
	return s.send(ctx, welcomeTemplate, Recipient{Name: username, Email: email}, nil)
}

// SendOrderConfirmation tells the customer an order was received
func (s *Service) SendOrderConfirmation(ctx context.Context, to Recipient, order Order) error {
	return s.send(ctx, orderConfirmationTemplate, to, map[string]interface{}{
		"Order": order,
	})
}

// SendOrderStatusUpdate tells the customer an order moved between statuses
func (s *Service) SendOrderStatusUpdate(ctx context.Context, to Recipient, order Order, oldStatus, newStatus string) error {
	return s.send(ctx, orderStatusTemplate, to, map[string]interface{}{
		"Order":     order,
		"OldStatus": oldStatus,
		"NewStatus": newStatus,
	})
}

func (s *Service) send(ctx context.Context, tmpl *emailTemplate, to Recipient, data map[string]interface{}) error {
	if !s.enabled {
		return nil
	}
	if strings.TrimSpace(to.Email) == "" {
		s.logger.Error("Email recipient is empty")
		return ErrEmptyRecipient
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	data["AppName"] = s.appName
	data["Name"] = to.Name

	email, err := tmpl.render(to.Email, data)
	if err != nil {
		return err
	}

	if err := s.provider.Send(ctx, email); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to.Email),
			zap.String("subject", email.Subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent", zap.String("to", to.Email), zap.String("subject", email.Subject))
	return nil
}
