// internal/registration/flow.go
// Phone-verified self-registration: pending sign-up, one-time code, promotion to a user

package registration

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/imadgeboyega/laundry-backend/internal/auth"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
	"github.com/imadgeboyega/laundry-backend/internal/sms"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidForm    = errors.New("invalid registration form")
	ErrUsernameTaken  = errors.New("username is already taken")
	ErrEmailTaken     = errors.New("email is already registered")
	ErrPhoneTaken     = errors.New("phone number is already registered")
	ErrNoPending      = errors.New("no pending registration")
	ErrCodeRequired   = errors.New("verification code is required")
	ErrCodeMismatch   = errors.New("invalid verification code")
	ErrCodeExpired    = errors.New("verification code has expired")
	ErrDeliveryFailed = errors.New("failed to send verification code")
	ErrUserCreation   = errors.New("failed to create user")
)

// UserStore is the slice of the user repository the flow needs
type UserStore interface {
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	IsPhoneTaken(ctx context.Context, phone string) (bool, error)
	CreateUser(ctx context.Context, user *auth.NewUser) (*auth.User, error)
}

// WelcomeNotifier sends the post-registration email
type WelcomeNotifier interface {
	SendWelcome(ctx context.Context, email, username string) error
}

// Flow drives registration. It holds no per-user state; callers pass the
// session's State by reference on every call.
type Flow struct {
	users    UserStore
	sender   sms.Sender
	notifier WelcomeNotifier
	config   Config
	logger   *zap.Logger

	now          func() time.Time
	generateCode func() (string, error)
}

// NewFlow creates a registration flow. notifier may be nil.
func NewFlow(users UserStore, sender sms.Sender, notifier WelcomeNotifier, config Config, logger *zap.Logger) *Flow {
	if config.CodeTTL <= 0 {
		config.CodeTTL = DefaultCodeTTL
	}
	if config.BCryptCost == 0 {
		config.BCryptCost = bcrypt.DefaultCost
	}
	if config.AppName == "" {
		config.AppName = "Laundry"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		users:        users,
		sender:       sender,
		notifier:     notifier,
		config:       config,
		logger:       logger,
		now:          time.Now,
		generateCode: generateCode,
	}
}

// Start validates the form, stores the pending registration and sends the first code.
// The pending state is written before delivery, so a failed send can be retried with Resend.
func (f *Flow) Start(ctx context.Context, st *State, req *StartRequest) (*Issued, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if err := f.checkAvailable(ctx, req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), f.config.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	st.Pending = &PendingRegistration{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
	}
	return f.issue(ctx, st)
}

func (f *Flow) checkAvailable(ctx context.Context, req *StartRequest) error {
	checks := []struct {
		check func(context.Context, string) (bool, error)
		value string
		err   error
	}{
		{f.users.IsUsernameTaken, req.Username, ErrUsernameTaken},
		{f.users.IsEmailTaken, req.Email, ErrEmailTaken},
		{f.users.IsPhoneTaken, req.Phone, ErrPhoneTaken},
	}
	for _, c := range checks {
		taken, err := c.check(ctx, c.value)
		if err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if taken {
			return c.err
		}
	}
	return nil
}

// Resend replaces the current code with a new one and sends it
func (f *Flow) Resend(ctx context.Context, st *State) (*Issued, error) {
	if st == nil || st.Pending == nil {
		return nil, ErrNoPending
	}
	return f.issue(ctx, st)
}

// issue writes a fresh challenge into st, then delivers it
func (f *Flow) issue(ctx context.Context, st *State) (*Issued, error) {
	code, err := f.generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	st.Challenge = &Challenge{
		Code:      code,
		ExpiresAt: f.now().Add(f.config.CodeTTL),
	}

	message := fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.",
		f.config.AppName, code, int(f.config.CodeTTL.Minutes()))
	result := f.sender.Send(ctx, st.Pending.Phone, message)

	issued := &Issued{
		MaskedPhone: sms.MaskPhone(st.Pending.Phone),
		ExpiresAt:   st.Challenge.ExpiresAt,
		Delivery:    result,
	}
	if !result.Success {
		f.logger.Warn("Verification code not delivered",
			zap.String("phone", issued.MaskedPhone),
			zap.String("error", result.Message),
		)
		return issued, ErrDeliveryFailed
	}
	return issued, nil
}

// Verify checks the submitted code and, when it is valid and fresh, creates the user.
// A mismatch leaves the state untouched. An expired match clears it.
func (f *Flow) Verify(ctx context.Context, st *State, code string) (*auth.User, error) {
	if !st.HasPending() {
		return nil, ErrNoPending
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(st.Challenge.Code)) != 1 {
		return nil, ErrCodeMismatch
	}
	if f.now().After(st.Challenge.ExpiresAt) {
		st.Clear()
		return nil, ErrCodeExpired
	}

	pending := st.Pending
	user, err := f.users.CreateUser(ctx, &auth.NewUser{
		Username:     pending.Username,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		Role:         auth.RoleCustomer,
		Phone:        pending.Phone,
	})
	if err != nil {
		f.logger.Error("Failed to create verified user", zap.String("username", pending.Username), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUserCreation, err)
	}

	st.Clear()
	f.logger.Info("Registration verified", zap.Int64("user_id", user.ID), zap.String("phone", sms.MaskPhone(user.Phone)))

	if f.notifier != nil {
		if err := f.notifier.SendWelcome(ctx, user.Email, user.Username); err != nil {
			f.logger.Warn("Failed to send welcome email", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	return user, nil
}

// generateCode returns a uniformly random code in [100000, 999999]
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
