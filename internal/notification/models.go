// internal/notification/models.go

package notification

import (
	"errors"
	"time"
)

// ErrEmptyRecipient is returned when an email has no To address
var ErrEmptyRecipient = errors.New("email recipient is empty")

// Email is a fully rendered message ready for a provider
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Recipient is the customer an email goes to
type Recipient struct {
	Name  string
	Email string
}

// Order is the order data the order emails render
type Order struct {
	ID             int64
	TrackingNumber string
	ServiceType    string
	WeightKg       float64
	TotalAmount    float64
	Status         string
	PickupDate     time.Time
	CreatedAt      time.Time
}

// Config selects and configures the email provider
type Config struct {
	Provider string // smtp, sendgrid or mock
	From     string
	FromName string
	Enabled  bool

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	SendGridAPIKey string
	// SendGridHost overrides https://api.sendgrid.com
	SendGridHost string
}
