// Package session tracks the authenticated identity for the life of the
// process and remembers it across restarts through a signed token slot.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/staffdesk/internal/records"
	pkgAuth "github.com/angelmondragon/staffdesk/pkg/auth"
	"github.com/angelmondragon/staffdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/angelmondragon/staffdesk/pkg/kv"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/metrics"
	"github.com/angelmondragon/staffdesk/pkg/security"
)

const invalidCredentialsMessage = "Invalid credentials or email not verified"

type accountDirectory interface {
	FindAccountByID(id string) (records.Account, error)
	FindAccountByEmail(email string) (records.Account, error)
}

// ManagerParams bundles the dependencies required to build a Manager.
type ManagerParams struct {
	Accounts   accountDirectory
	Slots      kv.Store
	Config     config.SessionConfig
	TokenKey   string
	PendingKey string
	Logger     *logger.Logger
	Metrics    *metrics.StoreMetrics
	Now        func() time.Time
}

// Manager owns the current identity. Callers must go through Current rather
// than caching the account, so edits to the active account show up at once.
//
// Methods that write a slot may return a STORAGE_FAILURE error after the
// in-memory change has been applied; callers treat it as a warning.
type Manager struct {
	mu        sync.RWMutex
	currentID string

	accounts   accountDirectory
	slots      kv.Store
	cfg        config.SessionConfig
	tokenKey   string
	pendingKey string
	logg       *logger.Logger
	metrics    *metrics.StoreMetrics
	now        func() time.Time
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account directory is required")
	}
	if params.Slots == nil {
		return nil, fmt.Errorf("slot store is required")
	}
	if params.Config.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	tokenKey := params.TokenKey
	if tokenKey == "" {
		tokenKey = "auth_token"
	}
	pendingKey := params.PendingKey
	if pendingKey == "" {
		pendingKey = "unverified_email"
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		accounts:   params.Accounts,
		slots:      params.Slots,
		cfg:        params.Config,
		tokenKey:   tokenKey,
		pendingKey: pendingKey,
		logg:       params.Logger,
		metrics:    params.Metrics,
		now:        now,
	}, nil
}

// Authenticate checks the credentials of a verified account, sets it as the
// current identity and writes the remembered-identity token. Unknown email,
// wrong password and unverified account all fail the same way.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (records.Account, error) {
	account, err := m.checkCredentials(email, password)
	m.metrics.ObserveAuth(err)
	if err != nil {
		m.logg.Info(m.logg.WithField(ctx, "email", records.NormalizeEmail(email)), "authentication rejected")
		return records.Account{}, err
	}

	m.setCurrent(account.ID)
	ctx = m.logg.WithAccountID(ctx, account.ID)
	m.logg.Info(ctx, "authenticated")

	return account, m.writeToken(ctx, account)
}

func (m *Manager) checkCredentials(email, password string) (records.Account, error) {
	invalid := pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	if strings.TrimSpace(email) == "" || password == "" {
		return records.Account{}, invalid
	}
	account, err := m.accounts.FindAccountByEmail(email)
	if err != nil {
		return records.Account{}, invalid
	}
	ok, err := security.VerifyPassword(password, account.Password)
	if err != nil || !ok {
		return records.Account{}, invalid
	}
	if !account.Verified {
		return records.Account{}, invalid
	}
	return account, nil
}

// Restore re-derives the current identity from the token slot. A missing,
// forged or expired token, or one naming a missing or unverified account,
// leaves the session logged out; stale tokens are removed from the slot.
func (m *Manager) Restore(ctx context.Context) (*records.Account, error) {
	m.setCurrent("")

	raw, err := m.slots.Get(ctx, m.tokenKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		m.logg.Error(ctx, "reading remembered identity failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Error loading session")
	}

	claims, err := pkgAuth.ParseRememberToken(m.cfg, strings.TrimSpace(string(raw)))
	if err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "discarding invalid remembered identity")
		return nil, m.clearToken(ctx)
	}

	account, err := m.accounts.FindAccountByEmail(claims.Email())
	if err != nil || !account.Verified {
		m.logg.Info(m.logg.WithField(ctx, "email", claims.Email()), "remembered identity no longer valid")
		return nil, m.clearToken(ctx)
	}

	m.setCurrent(account.ID)
	return &account, nil
}

// Current returns the live active account, or nil when logged out. When the
// account was removed or lost its verification the session is cleared.
func (m *Manager) Current(ctx context.Context) *records.Account {
	id := m.ActiveID()
	if id == "" {
		return nil
	}
	account, err := m.accounts.FindAccountByID(id)
	if err == nil && account.Verified {
		return &account
	}

	m.logg.Info(m.logg.WithAccountID(ctx, id), "active account vanished or unverified, clearing session")
	m.setCurrent("")
	if err := m.clearToken(ctx); err != nil {
		m.logg.Warn(ctx, "clearing remembered identity failed")
	}
	return nil
}

// ActiveID returns the id of the current identity without a store lookup.
func (m *Manager) ActiveID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentID
}

// Logout clears the in-memory identity and the token slot.
func (m *Manager) Logout(ctx context.Context) error {
	if id := m.ActiveID(); id != "" {
		ctx = m.logg.WithAccountID(ctx, id)
	}
	m.setCurrent("")
	m.logg.Info(ctx, "logged out")
	return m.clearToken(ctx)
}

// Refresh re-issues the token for the current identity, e.g. after the
// active account changed its own email.
func (m *Manager) Refresh(ctx context.Context) error {
	current := m.Current(ctx)
	if current == nil {
		return nil
	}
	return m.writeToken(ctx, *current)
}

// RememberUnverified records the email waiting for verification.
func (m *Manager) RememberUnverified(ctx context.Context, email string) error {
	if err := m.slots.Set(ctx, m.pendingKey, []byte(records.NormalizeEmail(email))); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Error saving data")
	}
	return nil
}

// UnverifiedEmail returns the email waiting for verification, or "".
func (m *Manager) UnverifiedEmail(ctx context.Context) (string, error) {
	raw, err := m.slots.Get(ctx, m.pendingKey)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Error loading data")
	}
	return records.NormalizeEmail(string(raw)), nil
}

// ForgetUnverified clears the verification handoff slot.
func (m *Manager) ForgetUnverified(ctx context.Context) error {
	if err := m.slots.Delete(ctx, m.pendingKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Error saving data")
	}
	return nil
}

func (m *Manager) setCurrent(id string) {
	m.mu.Lock()
	m.currentID = id
	m.mu.Unlock()
}

func (m *Manager) writeToken(ctx context.Context, account records.Account) error {
	token, err := pkgAuth.MintRememberToken(m.cfg, m.now(), pkgAuth.RememberPayload{Email: account.Email, Role: account.Role})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint remember token")
	}
	if err := m.slots.Set(ctx, m.tokenKey, []byte(token)); err != nil {
		m.logg.Error(ctx, "writing remembered identity failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Error saving data")
	}
	return nil
}

func (m *Manager) clearToken(ctx context.Context) error {
	if err := m.slots.Delete(ctx, m.tokenKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "Error saving data")
	}
	return nil
}
