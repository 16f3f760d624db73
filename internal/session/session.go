// Package session tracks admin logins. A Session is the explicit proof of
// authorization every admin write receives.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository/kv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authorize fails for a nil or expired session.
func (s *Session) Authorize() error {
	return s.authorizeAt(time.Now())
}

func (s *Session) authorizeAt(now time.Time) error {
	if s == nil || s.Token == "" {
		return fmt.Errorf("%w: no admin session", domain.ErrUnauthorized)
	}
	if !now.Before(s.ExpiresAt) {
		return fmt.Errorf("%w: admin session expired", domain.ErrUnauthorized)
	}
	return nil
}

// MinPasswordLength applies to registered admins; configured hashes are
// trusted as given.
const MinPasswordLength = 8

type Manager struct {
	mu       sync.Mutex
	users    map[string][]byte // email -> bcrypt hash
	dummy    []byte
	sessions map[string]*Session
	ttl      time.Duration
	log      *zap.Logger
	now      func() time.Time

	// Registered admins live in accounts, keyed by accountKey.
	accounts kv.Store
	regMu    sync.Mutex
	cost     int
}

type Option func(*Manager)

// WithAccountStore enables Register and lets Login accept the admins stored
// there in addition to the configured ones.
func WithAccountStore(store kv.Store) Option {
	return func(m *Manager) { m.accounts = store }
}

// NewManager takes email -> bcrypt hash pairs. Emails compare
// case-insensitively.
func NewManager(users map[string]string, ttl time.Duration, log *zap.Logger, opts ...Option) *Manager {
	hashes := make(map[string][]byte, len(users))
	for email, hash := range users {
		hashes[normalizeEmail(email)] = []byte(hash)
	}
	// Unknown emails are still run through a bcrypt comparison.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("storefront"), bcrypt.MinCost)
	m := &Manager{
		users:    hashes,
		dummy:    dummy,
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      log,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login checks the password and opens a session. Unknown email and wrong
// password yield the same domain.ErrUnauthorized.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	hash, ok, err := m.hashFor(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		_ = bcrypt.CompareHashAndPassword(m.dummy, []byte(password))
		m.log.Warn("admin login rejected", zap.String("email", email))
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		m.log.Warn("admin login rejected", zap.String("email", email))
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	s := &Session{Token: token, Email: email, ExpiresAt: m.now().Add(m.ttl)}

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	m.log.Info("admin logged in", zap.String("email", email))
	copied := *s
	return &copied, nil
}

// Register stores a new admin account. Callers must hold an authorized
// session; the Manager only checks the credentials themselves.
func (m *Manager) Register(ctx context.Context, email, password string) error {
	if m.accounts == nil {
		return fmt.Errorf("%w: admin registration is not enabled", domain.ErrUnsupportedOperation)
	}
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: admin email is invalid", domain.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}

	m.regMu.Lock()
	defer m.regMu.Unlock()

	_, exists, err := m.hashFor(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: admin %s", domain.ErrConflict, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := m.accounts.Set(ctx, accountKey(email), hash); err != nil {
		return domain.NewPersistenceError("register admin", "kv", err)
	}

	m.log.Info("admin registered", zap.String("email", email))
	return nil
}

// hashFor looks email up in the configured admins, then the account store.
func (m *Manager) hashFor(ctx context.Context, email string) ([]byte, bool, error) {
	if hash, ok := m.users[email]; ok {
		return hash, true, nil
	}
	if m.accounts == nil {
		return nil, false, nil
	}
	hash, err := m.accounts.Get(ctx, accountKey(email))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.NewPersistenceError("load admin", "kv", err)
	}
	return hash, true, nil
}

func accountKey(email string) string {
	return "admin:" + email
}

// Lookup returns the live session for token.
func (m *Manager) Lookup(token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, fmt.Errorf("%w: unknown session", domain.ErrUnauthorized)
	}
	if err := s.authorizeAt(m.now()); err != nil {
		delete(m.sessions, token)
		return nil, err
	}
	copied := *s
	return &copied, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[token]; ok {
		delete(m.sessions, token)
		m.log.Info("admin logged out", zap.String("email", s.Email))
	}
}

// Sweep drops expired sessions and reports how many went.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int
	for token, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, token)
			n++
		}
	}
	return n
}

// HashPassword is used by operators to produce config entries.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
