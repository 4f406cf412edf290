// internal/registration/models.go

package registration

import (
	"time"

	"github.com/imadgeboyega/laundry-backend/internal/sms"
)

// PendingRegistration is a sign-up waiting for phone confirmation.
// The password is already hashed when it reaches the session.
type PendingRegistration struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Phone        string `json:"phone"`
}

// Challenge is the one-time code sent to the phone
type Challenge struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// State is everything the flow keeps in the session between requests
type State struct {
	Pending   *PendingRegistration `json:"pending,omitempty"`
	Challenge *Challenge           `json:"challenge,omitempty"`
}

// HasPending reports whether a registration is awaiting its code
func (s *State) HasPending() bool {
	return s != nil && s.Pending != nil && s.Challenge != nil
}

// Clear returns the state to no pending registration
func (s *State) Clear() {
	s.Pending = nil
	s.Challenge = nil
}

// StartRequest is the registration form
type StartRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Phone           string `json:"phone" validate:"required"`
}

// VerifyRequest is the code form
type VerifyRequest struct {
	Code string `json:"code"`
}

// Issued describes a freshly sent challenge
type Issued struct {
	MaskedPhone string         `json:"phone"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Delivery    sms.SendResult `json:"-"`
}

// Config holds flow settings
type Config struct {
	CodeTTL    time.Duration
	BCryptCost int
	AppName    string
}

const (
	DefaultCodeTTL = 10 * time.Minute
	codeMin        = 100000
	codeMax        = 999999
)
