// Package session owns the client's authentication state: current user, token,
// and the Restoring/Authenticated/Anonymous state machine. All transitions go
// through the Manager; downstream components read snapshots and never mutate.
package session

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dev-dhiraj01/FeelInsight/internal/api"
	"github.com/dev-dhiraj01/FeelInsight/internal/credentials"
	"github.com/dev-dhiraj01/FeelInsight/internal/domain"
	apierrors "github.com/dev-dhiraj01/FeelInsight/internal/errors"
	"github.com/dev-dhiraj01/FeelInsight/internal/metrics"
)

const minPasswordLen = 6

// AuthAPI is the subset of gateway operations the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*api.AuthResponse, error)
	Me(ctx context.Context) (*domain.UserProfile, error)
}

// Manager is the session manager. It implements api.TokenSource, so the
// gateway client reads the current token from it on every call instead of
// relying on process-wide mutable state.
type Manager struct {
	mu      sync.Mutex
	authAPI AuthAPI
	creds   *credentials.Store
	clock   clockwork.Clock

	status          domain.Status
	token           string
	user            *domain.UserProfile
	authenticatedAt time.Time
}

// NewManager creates a manager in the Restoring state. Call SetAPI before any
// operation, then Restore once at startup.
func NewManager(creds *credentials.Store, clock clockwork.Clock) *Manager {
	return &Manager{
		creds:  creds,
		clock:  clock,
		status: domain.StatusRestoring,
	}
}

// SetAPI wires the gateway client. Used to resolve the circular dependency
// where the Manager is the client's token source but also calls through it.
// Must be called before Restore/Login/Register.
func (m *Manager) SetAPI(a AuthAPI) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authAPI = a
}

// Token implements api.TokenSource.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Session{
		Token:           m.token,
		User:            m.user,
		Status:          m.status,
		AuthenticatedAt: m.authenticatedAt,
	}
}

// Restore validates a previously stored token at startup. With no stored token
// the session becomes Anonymous. A rejected token (expired session) is cleared.
// Any other failure keeps the token and leaves the session effectively
// logged-in with an unknown profile, so transient backend unavailability does
// not log users out. Idempotent and safe to call again.
func (m *Manager) Restore(ctx context.Context) error {
	token, err := m.creds.Load()
	if err != nil {
		if err != domain.ErrNoToken {
			slog.WarnContext(ctx, "Failed to read stored token, starting anonymous", "error", err)
		}
		m.transition(domain.StatusAnonymous, "restore", "", nil)
		return nil
	}

	m.mu.Lock()
	m.token = token
	authAPI := m.authAPI
	m.mu.Unlock()

	user, err := authAPI.Me(ctx)
	switch {
	case err == nil:
		m.transition(domain.StatusAuthenticated, "restore", token, user)

	case apierrors.IsKind(err, apierrors.KindSessionExpired):
		if clearErr := m.creds.Clear(); clearErr != nil {
			slog.WarnContext(ctx, "Failed to clear rejected token", "error", clearErr)
		}
		m.transition(domain.StatusAnonymous, "restore", "", nil)

	default:
		// Server unreachable or failing: keep the token, stay logged in with an
		// unknown profile. Each later request is authorized by the token alone.
		slog.WarnContext(ctx, "Session restore degraded, keeping stored token", "error", err)
		m.transition(domain.StatusAuthenticated, "restore", token, nil)
	}
	return nil
}

// Login authenticates with the server and stores the issued token. Input is
// validated locally first; on any failure the session is left unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return apierrors.Validation("password is required")
	}

	resp, err := m.authAPI.Login(ctx, email, password)
	if err != nil {
		return err
	}

	m.persistToken(ctx, resp.AccessToken)
	user := resp.User
	m.transition(domain.StatusAuthenticated, "login", resp.AccessToken, &user)
	return nil
}

// Register creates an account and stores the issued token. Input is validated
// locally first; on any failure the session is left unchanged.
func (m *Manager) Register(ctx context.Context, email, password, name string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(password) < minPasswordLen {
		return apierrors.Validation("password must be at least 6 characters")
	}
	if strings.TrimSpace(name) == "" {
		return apierrors.Validation("name is required")
	}

	resp, err := m.authAPI.Register(ctx, email, password, name)
	if err != nil {
		return err
	}

	m.persistToken(ctx, resp.AccessToken)
	user := resp.User
	m.transition(domain.StatusAuthenticated, "register", resp.AccessToken, &user)
	return nil
}

// Logout clears the token from the credential store and memory. Idempotent.
func (m *Manager) Logout() error {
	err := m.creds.Clear()
	m.transition(domain.StatusAnonymous, "logout", "", nil)
	return err
}

// Invalidate performs a forced logout after a server-side session rejection.
// It checks current state first, so concurrent callers reacting to the same
// expiry produce the side effect only once.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	if m.token == "" && m.status == domain.StatusAnonymous {
		m.mu.Unlock()
		return
	}
	m.status = domain.StatusAnonymous
	m.token = ""
	m.user = nil
	m.authenticatedAt = time.Time{}
	m.mu.Unlock()

	if err := m.creds.Clear(); err != nil {
		slog.Warn("Failed to clear stored token on forced logout", "error", err)
	}
	metrics.SessionTransitions.WithLabelValues(string(domain.StatusAnonymous), "forced").Inc()
}

func (m *Manager) persistToken(ctx context.Context, token string) {
	if err := m.creds.Save(token); err != nil {
		// In-memory session still works; the token just won't survive a restart.
		slog.WarnContext(ctx, "Failed to persist session token", "error", err)
	}
}

func (m *Manager) transition(status domain.Status, trigger, token string, user *domain.UserProfile) {
	m.mu.Lock()
	m.status = status
	m.token = token
	m.user = user
	if status == domain.StatusAuthenticated {
		m.authenticatedAt = m.clock.Now()
	} else {
		m.authenticatedAt = time.Time{}
	}
	m.mu.Unlock()

	metrics.SessionTransitions.WithLabelValues(string(status), trigger).Inc()
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return apierrors.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apierrors.Validation("email address is not valid")
	}
	return nil
}
