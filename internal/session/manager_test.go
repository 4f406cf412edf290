package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestManager(t *testing.T) (*Manager, *RedisStore) {
	t.Helper()
	_, client := setupRedis(t)
	store := NewRedisStore(client)
	return NewManager(store, Config{Secret: testSecret, TTL: time.Hour, Issuer: "test"}, nil), store
}

func serve(h http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "laundry_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestMiddlewarePersistsValuesAcrossRequests(t *testing.T) {
	m, _ := newTestManager(t)

	write := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		require.True(t, ok)
		require.NoError(t, sess.Set("username", "maria"))
		utils.MessageResponse(w, "ok", http.StatusOK)
	}))
	rec := serve(write, nil)
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	var got string
	read := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		found, err := sess.Get("username", &got)
		require.NoError(t, err)
		assert.True(t, found)
	}))
	serve(read, cookie)
	assert.Equal(t, "maria", got)
}

func TestMiddlewareSkipsSaveWhenUnmodified(t *testing.T) {
	m, _ := newTestManager(t)

	rec := serve(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})), nil)

	assert.Empty(t, rec.Result().Cookies())
}

func TestMiddlewareRejectsTamperedCookie(t *testing.T) {
	m, store := newTestManager(t)

	forged, err := utils.GenerateSessionToken("victim", "test", "other-secret", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "victim", nil, time.Hour))

	var id string
	serve(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		id = sess.ID
	})), &http.Cookie{Name: "laundry_session", Value: forged})

	assert.NotEqual(t, "victim", id)
}

func TestMiddlewareDestroy(t *testing.T) {
	m, store := newTestManager(t)

	rec := serve(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		sess.Set("id", 7)
	})), nil)
	cookie := sessionCookie(t, rec)
	id, err := utils.ValidateSessionToken(cookie.Value, testSecret)
	require.NoError(t, err)

	rec = serve(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		sess.Destroy()
		utils.MessageResponse(w, "bye", http.StatusOK)
	})), cookie)

	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)
	_, err = store.Load(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMiddlewareRenewIssuesNewID(t *testing.T) {
	m, store := newTestManager(t)

	rec := serve(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		require.NoError(t, sess.Set("registration", "pending"))
	})), nil)
	anonymous := sessionCookie(t, rec)
	oldID, err := utils.ValidateSessionToken(anonymous.Value, testSecret)
	require.NoError(t, err)

	rec = serve(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		sess.Renew()
		require.NoError(t, sess.Set("isLoggedIn", true))
		utils.MessageResponse(w, "welcome", http.StatusOK)
	})), anonymous)

	newID, err := utils.ValidateSessionToken(sessionCookie(t, rec).Value, testSecret)
	require.NoError(t, err)
	assert.NotEqual(t, oldID, newID)

	_, err = store.Load(context.Background(), oldID)
	assert.ErrorIs(t, err, ErrNotFound)

	values, err := store.Load(context.Background(), newID)
	require.NoError(t, err)
	assert.Contains(t, values, "registration")
	assert.Contains(t, values, "isLoggedIn")

	// the pre-login cookie no longer resolves to the logged-in session
	var loggedIn bool
	serve(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromContext(r.Context())
		_, err := sess.Get("isLoggedIn", &loggedIn)
		require.NoError(t, err)
	})), anonymous)
	assert.False(t, loggedIn)
}

func TestSessionWriterUnwraps(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &sessionWriter{ResponseWriter: rec}
	assert.Same(t, rec, sw.Unwrap())
}

func TestSessionUnset(t *testing.T) {
	s := newSession("x", nil, true)
	require.NoError(t, s.Set("a", 1))
	s.Unset("a", "missing")

	var v int
	found, err := s.Get("a", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, s.Modified())
}
