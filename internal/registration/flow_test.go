package registration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/imadgeboyega/laundry-backend/internal/auth"
	"github.com/imadgeboyega/laundry-backend/internal/sms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	taken     map[string]bool
	created   []*auth.NewUser
	createErr error
}

func (f *fakeUsers) IsUsernameTaken(_ context.Context, v string) (bool, error) {
	return f.taken["username:"+v], nil
}

func (f *fakeUsers) IsEmailTaken(_ context.Context, v string) (bool, error) {
	return f.taken["email:"+v], nil
}

func (f *fakeUsers) IsPhoneTaken(_ context.Context, v string) (bool, error) {
	return f.taken["phone:"+v], nil
}

func (f *fakeUsers) CreateUser(_ context.Context, nu *auth.NewUser) (*auth.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, nu)
	return &auth.User{
		ID:            int64(len(f.created)),
		Username:      nu.Username,
		Email:         nu.Email,
		PasswordHash:  nu.PasswordHash,
		Role:          nu.Role,
		Phone:         nu.Phone,
		PhoneVerified: true,
	}, nil
}

type fakeSender struct {
	messages []string
	fail     bool
}

func (f *fakeSender) Send(_ context.Context, phone, message string) sms.SendResult {
	f.messages = append(f.messages, message)
	if f.fail {
		return sms.SendResult{Success: false, Message: "Local gateway credentials not configured", Phone: phone}
	}
	return sms.SendResult{Success: true, Message: "SMS sent successfully via Local Gateway", Phone: phone}
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) SendWelcome(_ context.Context, email, _ string) error {
	f.sent = append(f.sent, email)
	return f.err
}

type harness struct {
	flow     *Flow
	users    *fakeUsers
	sender   *fakeSender
	notifier *fakeNotifier
	clock    time.Time
	codes    []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:    &fakeUsers{taken: map[string]bool{}},
		sender:   &fakeSender{},
		notifier: &fakeNotifier{},
		clock:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	h.flow = NewFlow(h.users, h.sender, h.notifier, Config{BCryptCost: bcrypt.MinCost}, nil)
	h.flow.now = func() time.Time { return h.clock }
	h.flow.generateCode = func() (string, error) {
		if len(h.codes) == 0 {
			return "", errors.New("no codes left")
		}
		code := h.codes[0]
		h.codes = h.codes[1:]
		return code, nil
	}
	return h
}

func validForm() *StartRequest {
	return &StartRequest{
		Username:        "maria",
		Email:           "maria@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Phone:           "09171234567",
	}
}

func TestStartIssuesChallenge(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"123456"}
	st := &State{}

	issued, err := h.flow.Start(context.Background(), st, validForm())
	require.NoError(t, err)

	assert.Equal(t, "***-****-4567", issued.MaskedPhone)
	assert.Equal(t, h.clock.Add(10*time.Minute), issued.ExpiresAt)
	require.True(t, st.HasPending())
	assert.Equal(t, "123456", st.Challenge.Code)
	assert.Equal(t, "maria", st.Pending.Username)
	assert.NotEqual(t, "secret1", st.Pending.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(st.Pending.PasswordHash), []byte("secret1")))

	require.Len(t, h.sender.messages, 1)
	assert.Contains(t, h.sender.messages[0], "123456")
}

func TestStartValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StartRequest)
	}{
		{"short username", func(r *StartRequest) { r.Username = "ab" }},
		{"long username", func(r *StartRequest) { r.Username = fmt.Sprintf("%051d", 0) }},
		{"bad email", func(r *StartRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *StartRequest) { r.Password, r.ConfirmPassword = "12345", "12345" }},
		{"confirm mismatch", func(r *StartRequest) { r.ConfirmPassword = "other" }},
		{"missing phone", func(r *StartRequest) { r.Phone = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.codes = []string{"123456"}
			st := &State{}
			req := validForm()
			tt.mutate(req)

			_, err := h.flow.Start(context.Background(), st, req)
			assert.ErrorIs(t, err, ErrInvalidForm)
			assert.False(t, st.HasPending())
			assert.Empty(t, h.sender.messages)
		})
	}
}

func TestStartRejectsTakenIdentity(t *testing.T) {
	for key, want := range map[string]error{
		"username:maria":          ErrUsernameTaken,
		"email:maria@example.com": ErrEmailTaken,
		"phone:09171234567":       ErrPhoneTaken,
	} {
		h := newHarness(t)
		h.codes = []string{"123456"}
		h.users.taken[key] = true
		st := &State{}

		_, err := h.flow.Start(context.Background(), st, validForm())
		assert.ErrorIs(t, err, want)
		assert.False(t, st.HasPending())
	}
}

func TestStartDeliveryFailureKeepsPending(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"111111", "222222"}
	h.sender.fail = true
	st := &State{}

	issued, err := h.flow.Start(context.Background(), st, validForm())
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	require.NotNil(t, issued)
	assert.False(t, issued.Delivery.Success)
	assert.True(t, st.HasPending())

	h.sender.fail = false
	_, err = h.flow.Resend(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "222222", st.Challenge.Code)
}

func TestResendWithoutPending(t *testing.T) {
	h := newHarness(t)
	_, err := h.flow.Resend(context.Background(), &State{})
	assert.ErrorIs(t, err, ErrNoPending)
	assert.Empty(t, h.sender.messages)
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"111111", "222222"}
	st := &State{}

	_, err := h.flow.Start(context.Background(), st, validForm())
	require.NoError(t, err)
	h.clock = h.clock.Add(5 * time.Minute)
	issued, err := h.flow.Resend(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, h.clock.Add(10*time.Minute), issued.ExpiresAt)

	_, err = h.flow.Verify(context.Background(), st, "111111")
	assert.ErrorIs(t, err, ErrCodeMismatch)
	assert.True(t, st.HasPending())

	user, err := h.flow.Verify(context.Background(), st, "222222")
	require.NoError(t, err)
	assert.Equal(t, "maria", user.Username)
}

func TestVerifyRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"654321"}
	st := &State{}

	_, err := h.flow.Start(context.Background(), st, validForm())
	require.NoError(t, err)

	user, err := h.flow.Verify(context.Background(), st, "654321")
	require.NoError(t, err)

	assert.Equal(t, "09171234567", user.Phone)
	assert.True(t, user.PhoneVerified)
	assert.Equal(t, auth.RoleCustomer, user.Role)
	assert.False(t, st.HasPending())
	assert.Nil(t, st.Pending)
	assert.Equal(t, []string{"maria@example.com"}, h.notifier.sent)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	t.Run("T+599s succeeds", func(t *testing.T) {
		h := newHarness(t)
		h.codes = []string{"123456"}
		st := &State{}
		_, err := h.flow.Start(context.Background(), st, validForm())
		require.NoError(t, err)

		h.clock = h.clock.Add(599 * time.Second)
		_, err = h.flow.Verify(context.Background(), st, "123456")
		assert.NoError(t, err)
	})

	t.Run("T+601s expires and clears", func(t *testing.T) {
		h := newHarness(t)
		h.codes = []string{"123456"}
		st := &State{}
		_, err := h.flow.Start(context.Background(), st, validForm())
		require.NoError(t, err)

		h.clock = h.clock.Add(601 * time.Second)
		_, err = h.flow.Verify(context.Background(), st, "123456")
		assert.ErrorIs(t, err, ErrCodeExpired)
		assert.False(t, st.HasPending())
		assert.Empty(t, h.users.created)

		_, err = h.flow.Verify(context.Background(), st, "123456")
		assert.ErrorIs(t, err, ErrNoPending)
	})
}

func TestVerifyRejectionsLeaveStateUntouched(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"123456"}
	st := &State{}
	_, err := h.flow.Start(context.Background(), st, validForm())
	require.NoError(t, err)
	before := *st.Challenge

	_, err = h.flow.Verify(context.Background(), st, "")
	assert.ErrorIs(t, err, ErrCodeRequired)

	_, err = h.flow.Verify(context.Background(), st, "654321")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	// a wrong code after expiry is still just a mismatch
	h.clock = h.clock.Add(time.Hour)
	_, err = h.flow.Verify(context.Background(), st, "000000")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	require.True(t, st.HasPending())
	assert.Equal(t, before, *st.Challenge)
}

func TestVerifyWithoutPending(t *testing.T) {
	h := newHarness(t)
	_, err := h.flow.Verify(context.Background(), &State{}, "123456")
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestVerifyUserCreationFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"123456"}
	st := &State{}
	_, err := h.flow.Start(context.Background(), st, validForm())
	require.NoError(t, err)

	h.users.createErr = errors.New("db down")
	_, err = h.flow.Verify(context.Background(), st, "123456")
	assert.ErrorIs(t, err, ErrUserCreation)
	assert.True(t, st.HasPending())

	h.users.createErr = nil
	_, err = h.flow.Verify(context.Background(), st, "123456")
	assert.NoError(t, err)
}

func TestVerifyWelcomeEmailFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"123456"}
	h.notifier.err = errors.New("smtp down")
	st := &State{}
	_, err := h.flow.Start(context.Background(), st, validForm())
	require.NoError(t, err)

	_, err = h.flow.Verify(context.Background(), st, "123456")
	assert.NoError(t, err)
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
