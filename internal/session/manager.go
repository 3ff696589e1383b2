package session

import (
	"context"
	"errors"
	"sync"

	"github.com/pot-code/lms-client/internal/domain"
	"github.com/pot-code/lms-client/internal/identity"
	"github.com/pot-code/lms-client/internal/infrastructure/driver"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// TokenKey state-store key holding the persisted bearer token
const TokenKey = "token"

// ErrNotAuthenticated the operation requires an active session
var ErrNotAuthenticated = errors.New("not authenticated")

// API backend calls the manager depends on
type API interface {
	Token(ctx context.Context, username, password string) (string, error)
	UserDetails(ctx context.Context, token string) (string, error)
}

// Manager owns the authentication state machine. The session value is held
// exclusively here; it is established only when both the credential
// exchange and the role extraction succeed, and destroyed on logout or on
// any authorization failure observed downstream.
type Manager struct {
	api    API
	store  driver.KeyValueDB
	logger *zap.Logger

	mu      sync.Mutex
	current *domain.Session
}

// NewManager create a session manager
func NewManager(api API, store driver.KeyValueDB, logger *zap.Logger) *Manager {
	return &Manager{
		api:    api,
		store:  store,
		logger: logger,
	}
}

// Login exchange credentials for a token, fetch the account role and
// establish the session. Empty inputs short-circuit with a ValidationError
// before any network call. An out-of-enum role fails with UnknownRoleError
// and leaves no session behind: "logged in but role unknown" is never an
// observable state.
func (m *Manager) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "Manager.Login", "service")
	defer apmSpan.End()

	var fields []*domain.FieldError
	if username == "" {
		fields = append(fields, &domain.FieldError{Field: "username", Reason: "username is required"})
	}
	if password == "" {
		fields = append(fields, &domain.FieldError{Field: "password", Reason: "password is required"})
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	// the details fetch depends on the issued token, the two calls are
	// strictly sequential
	token, err := m.api.Token(ctx, username, password)
	if err != nil {
		return nil, err
	}
	rawRole, err := m.api.UserDetails(ctx, token)
	if err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{Token: token, Role: role, Username: username}
	if err := m.store.SetEX(TokenKey, token, 0); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.logger.Info("session established",
		zap.String("user.name", username),
		zap.String("user.roles", string(role)),
	)
	return sess, nil
}

// Resume rebuild the session from a previously persisted token. The token
// is revalidated with a details fetch; a rejected token clears the
// persisted state.
func (m *Manager) Resume(ctx context.Context) (*domain.Session, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "Manager.Resume", "service")
	defer apmSpan.End()

	token, err := m.store.Get(TokenKey)
	if err != nil {
		if errors.Is(err, driver.ErrKeyNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	rawRole, err := m.api.UserDetails(ctx, token)
	if err != nil {
		return nil, m.Guard(err)
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{Token: token, Role: role}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.logger.Info("session resumed", zap.String("user.roles", string(role)))
	return sess, nil
}

// Logout destroy the session and the persisted client state. Idempotent.
func (m *Manager) Logout() error {
	m.mu.Lock()
	active := m.current != nil
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Del(TokenKey, identity.CacheKey); err != nil {
		return err
	}
	if active {
		m.logger.Info("session destroyed")
	}
	return nil
}

// Current return the active session, if any
func (m *Manager) Current() (*domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, false
	}
	sess := *m.current
	return &sess, true
}

// Token return the active session's bearer token
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", ErrNotAuthenticated
	}
	return m.current.Token, nil
}

// Guard tear the session down when err carries an authorization failure,
// so a revoked token can never outlive its session. The error is returned
// unchanged for the caller to surface.
func (m *Manager) Guard(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsAuthError(err) {
		if lerr := m.Logout(); lerr != nil {
			m.logger.Warn("session teardown after auth failure", zap.Error(lerr))
		}
	}
	return err
}
