// Package session keeps login sessions server-side, keyed by the id inside a signed cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bukukas/pkg/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie.
const CookieName = "kas_session"

// ErrNoSession is returned when the request carries no valid, live session.
var ErrNoSession = errors.New("no session")

// Session is the server-side state of one login.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity returns the principal this session authenticates.
func (s Session) Identity() auth.Identity {
	return auth.Identity{UserID: s.UserID, Username: s.Username, Role: s.Role}
}

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Put(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, secret []byte, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, secure: secure, now: time.Now}
}

// Start creates a session for id and sets the cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, id auth.Identity) (Session, error) {
	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Username:  id.Username,
		Role:      id.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   s.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	if err := m.store.Put(ctx, s); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Load returns the live session for r, or ErrNoSession.
func (m *Manager) Load(ctx context.Context, r *http.Request) (Session, error) {
	sid, err := m.sessionID(r)
	if err != nil {
		return Session{}, ErrNoSession
	}
	s, err := m.store.Get(ctx, sid)
	if err != nil {
		return Session{}, err
	}
	if !m.now().Before(s.ExpiresAt) {
		_ = m.store.Delete(ctx, sid)
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Destroy removes the server-side session (if any) and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var err error
	if sid, perr := m.sessionID(r); perr == nil {
		err = m.store.Delete(ctx, sid)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(c.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.ID == "" {
		return "", ErrNoSession
	}
	return claims.ID, nil
}
