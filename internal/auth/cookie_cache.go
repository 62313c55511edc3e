package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/curricula/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// CacheClaims is the signed snapshot of a session kept in the cache cookie.
type CacheClaims struct {
	SessionID uuid.UUID   `json:"sid"`
	UserID    uuid.UUID   `json:"userId"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// CookieCache signs and verifies the short-lived session snapshot so most
// requests resolve a viewer without touching the database.
type CookieCache struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCookieCache creates a cookie cache signer.
func NewCookieCache(secret string, ttl time.Duration) *CookieCache {
	return &CookieCache{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a snapshot of the session and its user.
func (c *CookieCache) Issue(sessionID uuid.UUID, user models.UserPublic) (string, error) {
	now := c.now()
	claims := CacheClaims{
		SessionID: sessionID,
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses a snapshot, returning claims or ErrInvalidToken.
func (c *CookieCache) Verify(tokenString string) (*CacheClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CacheClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*CacheClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// User rebuilds the public user carried in the snapshot.
func (cl *CacheClaims) User() models.UserPublic {
	return models.UserPublic{ID: cl.UserID, Name: cl.Name, Email: cl.Email, Role: cl.Role}
}
