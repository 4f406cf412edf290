// internal/session/manager.go
// Cookie handling and the per-request session lifecycle

package session

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/imadgeboyega/laundry-backend/internal/common/utils"
	"go.uber.org/zap"
)

// Config holds cookie and lifetime settings
type Config struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	Issuer     string
}

// Manager loads a session before each request and persists it before the response is written
type Manager struct {
	store  Store
	config Config
	logger *zap.Logger
}

// NewManager creates a session manager
func NewManager(store Store, config Config, logger *zap.Logger) *Manager {
	if config.TTL <= 0 {
		config.TTL = 2 * time.Hour
	}
	if config.CookieName == "" {
		config.CookieName = "laundry_session"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, config: config, logger: logger}
}

// Middleware attaches a session to the request context
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)

		sw := &sessionWriter{ResponseWriter: w, manager: m, session: sess, request: r}
		next.ServeHTTP(sw, r.WithContext(NewContext(r.Context(), sess)))
		sw.commit()
	})
}

func (m *Manager) load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return m.fresh()
	}

	id, err := utils.ValidateSessionToken(cookie.Value, m.config.Secret)
	if err != nil {
		m.logger.Debug("Rejected session cookie", zap.Error(err))
		return m.fresh()
	}

	values, err := m.store.Load(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Error("Failed to load session", zap.Error(err))
		}
		return m.fresh()
	}
	return newSession(id, values, false)
}

func (m *Manager) fresh() *Session {
	return newSession(uuid.NewString(), nil, true)
}

// save persists the session and refreshes the cookie; called once per request
func (m *Manager) save(w http.ResponseWriter, r *http.Request, sess *Session) {
	sess.mu.Lock()
	id, previousID := sess.ID, sess.previousID
	destroyed, modified, isNew := sess.destroyed, sess.modified, sess.isNew
	sess.mu.Unlock()

	if destroyed {
		m.delete(r, previousID)
		if !isNew {
			m.delete(r, id)
		}
		http.SetCookie(w, m.cookie("", -1))
		return
	}
	if !modified {
		return
	}

	if err := m.store.Save(r.Context(), id, sess.snapshot(), m.config.TTL); err != nil {
		m.logger.Error("Failed to save session", zap.Error(err))
		return
	}
	m.delete(r, previousID)

	token, err := utils.GenerateSessionToken(id, m.config.Issuer, m.config.Secret, m.config.TTL)
	if err != nil {
		m.logger.Error("Failed to sign session cookie", zap.Error(err))
		return
	}
	http.SetCookie(w, m.cookie(token, int(m.config.TTL.Seconds())))
}

func (m *Manager) delete(r *http.Request, id string) {
	if id == "" {
		return
	}
	if err := m.store.Delete(r.Context(), id); err != nil {
		m.logger.Error("Failed to delete session", zap.Error(err))
	}
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.config.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionWriter saves the session right before the first byte goes out,
// so the cookie header is still writable.
type sessionWriter struct {
	http.ResponseWriter
	manager *Manager
	session *Session
	request *http.Request
	once    sync.Once
}

func (w *sessionWriter) commit() {
	w.once.Do(func() {
		w.manager.save(w.ResponseWriter, w.request, w.session)
	})
}

func (w *sessionWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *sessionWriter) Flush() {
	w.commit()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
