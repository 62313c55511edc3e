package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/curricula/backend/internal/models"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "curricula.session"
	// CacheCookie carries the short-lived signed session snapshot.
	CacheCookie = "curricula.session_data"

	tokenKey     = "token"
	sessionIDKey = "sid"
)

// SessionStore is the persistence the session manager needs.
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	SessionByToken(ctx context.Context, token string) (*models.Session, *models.User, error)
	ExtendSession(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

// ManagerConfig holds session lifetimes and cookie settings.
type ManagerConfig struct {
	Secret        string
	TTL           time.Duration
	Refresh       time.Duration
	CacheTTL      time.Duration
	SecureCookies bool
}

// Manager starts, resolves and ends admin sessions.
type Manager struct {
	store   SessionStore
	cookies *sessions.CookieStore
	cache   *CookieCache
	cfg     ManagerConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewManager creates a session manager.
func NewManager(store SessionStore, cfg ManagerConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	cookies := sessions.NewCookieStore([]byte(cfg.Secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		Secure:   cfg.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	cookies.MaxAge(int(cfg.TTL.Seconds()))
	return &Manager{
		store:   store,
		cookies: cookies,
		cache:   NewCookieCache(cfg.Secret, cfg.CacheTTL),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Start creates a session for user and writes the session cookies.
func (m *Manager) Start(c *gin.Context, user *models.User) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	s := &models.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: m.now().Add(m.cfg.TTL),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if err := m.store.CreateSession(c.Request.Context(), s); err != nil {
		return nil, err
	}
	if err := m.writeSession(c, s); err != nil {
		return nil, err
	}
	m.writeCache(c, s.ID, user.ToPublic())
	return s, nil
}

// Resolve returns the viewer for the request. Missing, tampered and expired
// sessions resolve to an anonymous viewer; only store failures are errors.
func (m *Manager) Resolve(c *gin.Context) (*Viewer, error) {
	sess, _ := m.cookies.Get(c.Request, SessionCookie)
	token, _ := sess.Values[tokenKey].(string)
	if token == "" {
		return &Viewer{}, nil
	}

	if sid, _ := sess.Values[sessionIDKey].(string); sid != "" {
		if cookie, err := c.Cookie(CacheCookie); err == nil && cookie != "" {
			if claims, err := m.cache.Verify(cookie); err == nil && claims.SessionID.String() == sid {
				u := claims.User()
				return &Viewer{SessionID: claims.SessionID, User: &u}, nil
			}
		}
	}

	s, user, err := m.store.SessionByToken(c.Request.Context(), token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	now := m.now()
	if s == nil || !s.ExpiresAt.After(now) {
		if s != nil {
			if err := m.store.DeleteSession(c.Request.Context(), token); err != nil {
				m.logger.Warn("delete expired session", zap.Error(err))
			}
		}
		m.clearCookies(c)
		return &Viewer{}, nil
	}

	// A session is refreshed once it has been alive longer than the refresh window.
	if issued := s.ExpiresAt.Add(-m.cfg.TTL); now.Sub(issued) >= m.cfg.Refresh {
		expires := now.Add(m.cfg.TTL)
		if err := m.store.ExtendSession(c.Request.Context(), s.ID, expires); err != nil {
			m.logger.Warn("extend session", zap.String("session_id", s.ID.String()), zap.Error(err))
		} else {
			s.ExpiresAt = expires
			if err := m.writeSession(c, s); err != nil {
				m.logger.Warn("write session cookie", zap.Error(err))
			}
		}
	}

	public := user.ToPublic()
	m.writeCache(c, s.ID, public)
	return &Viewer{SessionID: s.ID, User: &public}, nil
}

// End deletes the request's session and clears its cookies.
func (m *Manager) End(c *gin.Context) error {
	sess, _ := m.cookies.Get(c.Request, SessionCookie)
	token, _ := sess.Values[tokenKey].(string)
	m.clearCookies(c)
	if token == "" {
		return nil
	}
	return m.store.DeleteSession(c.Request.Context(), token)
}

func (m *Manager) writeSession(c *gin.Context, s *models.Session) error {
	sess, _ := m.cookies.Get(c.Request, SessionCookie)
	sess.Values[tokenKey] = s.Token
	sess.Values[sessionIDKey] = s.ID.String()
	sess.Options.MaxAge = int(m.cfg.TTL.Seconds())
	if err := sess.Save(c.Request, c.Writer); err != nil {
		return fmt.Errorf("save session cookie: %w", err)
	}
	return nil
}

func (m *Manager) writeCache(c *gin.Context, sessionID uuid.UUID, user models.UserPublic) {
	signed, err := m.cache.Issue(sessionID, user)
	if err != nil {
		m.logger.Warn("sign session cache", zap.Error(err))
		return
	}
	http.SetCookie(c.Writer, m.cookie(CacheCookie, signed, int(m.cfg.CacheTTL.Seconds())))
}

func (m *Manager) clearCookies(c *gin.Context) {
	http.SetCookie(c.Writer, m.cookie(SessionCookie, "", -1))
	http.SetCookie(c.Writer, m.cookie(CacheCookie, "", -1))
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   m.cfg.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
