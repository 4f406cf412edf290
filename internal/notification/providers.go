// internal/notification/providers.go

package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

// EmailProvider defines the email provider interface
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// NewProvider builds the provider named in config
func NewProvider(config Config) (EmailProvider, error) {
	switch config.Provider {
	case "smtp":
		return NewSMTPProvider(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPassword, config.From, config.FromName), nil
	case "sendgrid":
		return NewSendGridProvider(config.SendGridAPIKey, config.From, config.FromName, config.SendGridHost), nil
	case "mock", "":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("invalid email provider: %s", config.Provider)
	}
}

// SMTPProvider implements EmailProvider using SMTP
type SMTPProvider struct {
	from     string
	fromName string
	dialer   *gomail.Dialer
}

// NewSMTPProvider creates a new SMTP email provider
func NewSMTPProvider(host string, port int, username, password, from, fromName string) *SMTPProvider {
	return &SMTPProvider{
		from:     from,
		fromName: fromName,
		dialer:   gomail.NewDialer(host, port, username, password),
	}
}

// Send sends an email using SMTP
func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(p.from, p.fromName))
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)

	if email.HTML != "" {
		m.SetBody("text/html", email.HTML)
		if email.Text != "" {
			m.AddAlternative("text/plain", email.Text)
		}
	} else {
		m.SetBody("text/plain", email.Text)
	}

	if err := p.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendGridProvider implements EmailProvider using SendGrid
type SendGridProvider struct {
	apiKey   string
	from     string
	fromName string
	host     string
}

// NewSendGridProvider creates a new SendGrid email provider
func NewSendGridProvider(apiKey, from, fromName, host string) *SendGridProvider {
	return &SendGridProvider{
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
		host:     host,
	}
}

// Send sends an email using SendGrid
func (p *SendGridProvider) Send(ctx context.Context, email *Email) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(p.fromName, p.from),
		email.Subject,
		mail.NewEmail("", email.To),
		email.Text,
		email.HTML,
	)

	request := sendgrid.GetRequest(p.apiKey, "/v3/mail/send", p.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned error status: %d", response.StatusCode)
	}
	return nil
}

// MockProvider records emails instead of sending them
type MockProvider struct {
	mu   sync.Mutex
	sent []Email
}

// NewMockProvider creates a new mock email provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Send records the email
func (p *MockProvider) Send(ctx context.Context, email *Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, *email)
	return nil
}

// Sent returns a copy of every recorded email
func (p *MockProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Email(nil), p.sent...)
}
