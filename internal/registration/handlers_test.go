package registration

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/imadgeboyega/laundry-backend/internal/auth"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
	"github.com/imadgeboyega/laundry-backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flowClient struct {
	router *mux.Router
	sess   *session.Session
}

func newFlowClient(h *harness) *flowClient {
	router := mux.NewRouter()
	RegisterRoutes(router, NewHandler(h.flow, nil))
	return &flowClient{router: router, sess: session.New("browser")}
}

func (c *flowClient) post(t *testing.T, path string, form url.Values) (int, utils.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(session.NewContext(req.Context(), c.sess))
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func registrationForm() url.Values {
	return url.Values{
		"username":         {"maria"},
		"email":            {"maria@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
		"phone":            {"09171234567"},
	}
}

func TestRegistrationEndpointsHappyPath(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"111111", "222222"}
	c := newFlowClient(h)

	code, resp := c.post(t, "/register", registrationForm())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/register/verify", resp.Next)
	assert.Contains(t, resp.Message, "***-****-4567")

	code, resp = c.post(t, "/register/resend", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/register/verify", resp.Next)

	code, resp = c.post(t, "/register/verify", url.Values{"code": {"111111"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid verification code", resp.Error)

	code, resp = c.post(t, "/register/verify", url.Values{"code": {"222222"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/customer/dashboard", resp.Next)
	assert.NotEqual(t, "browser", c.sess.ID, "verified user gets a fresh session ID")

	identity, err := auth.CurrentIdentity(c.sess)
	require.NoError(t, err)
	assert.Equal(t, "maria", identity.Username)
	assert.Equal(t, auth.RoleCustomer, identity.Role)

	var st State
	found, _ := c.sess.Get(stateSessionKey, &st)
	assert.False(t, found)
}

func TestRegistrationEndpointErrors(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"123456"}
	c := newFlowClient(h)

	code, resp := c.post(t, "/register/verify", url.Values{"code": {"123456"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "/register", resp.Next)

	code, _ = c.post(t, "/register/resend", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	bad := registrationForm()
	bad.Set("confirm_password", "different")
	code, resp = c.post(t, "/register", bad)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "/register", resp.Next)

	h.users.taken["username:maria"] = true
	code, _ = c.post(t, "/register", registrationForm())
	assert.Equal(t, http.StatusConflict, code)
}

func TestRegistrationEndpointExpiry(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"123456"}
	c := newFlowClient(h)

	code, _ := c.post(t, "/register", registrationForm())
	require.Equal(t, http.StatusOK, code)

	code, resp := c.post(t, "/register/verify", url.Values{"code": {""}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "/register/verify", resp.Next)

	h.clock = h.clock.Add(11 * time.Minute)
	code, resp = c.post(t, "/register/verify", url.Values{"code": {"123456"}})
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, "/register", resp.Next)

	code, _ = c.post(t, "/register/verify", url.Values{"code": {"123456"}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRegistrationEndpointDeliveryFailure(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"123456", "654321"}
	h.sender.fail = true
	c := newFlowClient(h)

	code, resp := c.post(t, "/register", registrationForm())
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, resp.Error, "Local gateway credentials not configured")
	assert.Equal(t, "/register/verify", resp.Next)

	h.sender.fail = false
	code, _ = c.post(t, "/register/resend", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRegistrationEndpointDuplicateAtVerify(t *testing.T) {
	h := newHarness(t)
	h.codes = []string{"123456"}
	c := newFlowClient(h)

	code, _ := c.post(t, "/register", registrationForm())
	require.Equal(t, http.StatusOK, code)

	// someone else registered the phone between start and verify
	h.users.createErr = fmt.Errorf("failed to insert user: %w", auth.ErrDuplicateUser)
	code, resp := c.post(t, "/register/verify", url.Values{"code": {"123456"}})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "/register", resp.Next)

	var st State
	found, _ := c.sess.Get(stateSessionKey, &st)
	assert.False(t, found)

	// other store failures keep the pending registration for a retry
	h.codes = []string{"654321"}
	code, _ = c.post(t, "/register", registrationForm())
	require.Equal(t, http.StatusOK, code)
	h.users.createErr = errors.New("db down")
	code, resp = c.post(t, "/register/verify", url.Values{"code": {"654321"}})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "/register/verify", resp.Next)
	found, _ = c.sess.Get(stateSessionKey, &st)
	assert.True(t, found)
}
