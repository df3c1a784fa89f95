// Package session owns the access credential and keeps it valid.
//
// A renewal is scheduled from the credential's own expiry, GuardWindow ahead
// of it. A failed renewal signs the user out; there is no retry.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/clickpot/internal/api"
	"github.com/mcoot/clickpot/internal/credential"
	"github.com/mcoot/clickpot/internal/dependencies/clock"
	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/storage"
)

// Authenticator is the part of the service the manager talks to
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Refresh(ctx context.Context) (string, error)
	ChangeLanguage(ctx context.Context, language string) error
	DeleteAccount(ctx context.Context) error

	Cookies() []model.StoredCookie
	SetCookies(cookies []model.StoredCookie)
	ClearCookies()
}

// Listener is told about every state transition, in order.
// Listeners must not change the session from inside the callback.
type Listener func(ctx context.Context, snap Snapshot)

// Config holds session manager settings
type Config struct {
	// RenewTimeout bounds a renewal started by the timer
	RenewTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the session manager
func DefaultConfig() Config {
	return Config{
		RenewTimeout: 15 * time.Second,
	}
}

// Manager is the sole writer of the credential and the cached identity
type Manager struct {
	store  storage.Store
	auth   Authenticator
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger

	// ctx is cancelled by Close and bounds timer-driven renewals
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	cred       credential.Credential
	identity   model.Identity
	language   string
	reason     Reason
	timer      clockwork.Timer
	generation uint64
	listeners  []Listener

	// persistMu is held from a transition's generation check until its store
	// writes finish, so a superseded session is never written back to the cache
	persistMu sync.Mutex

	// notifyMu keeps listener calls ordered
	notifyMu sync.Mutex
}

// New creates a session manager in the anonymous state
func New(store storage.Store, auth Authenticator, clk clock.Clock, cfg Config, logger *slog.Logger) *Manager {
	if cfg.RenewTimeout == 0 {
		cfg.RenewTimeout = DefaultConfig().RenewTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:  store,
		auth:   auth,
		clock:  clk,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "session")),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Subscribe registers a listener for state transitions
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Snapshot returns the current session
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:      m.state,
		Credential: m.cred,
		Identity:   m.identity,
		Language:   m.language,
		Reason:     m.reason,
	}
}

// Token returns the raw credential for outbound calls, or "" when not signed in
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return ""
	}
	return m.cred.Raw()
}

// IsExpired reports whether the held credential is expired or unreadable.
// No credential counts as expired.
func (m *Manager) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred.IsExpired(m.clock.Now())
}

// CanAct reports whether the user may perform authenticated actions
func (m *Manager) CanAct() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated && !m.cred.IsExpired(m.clock.Now())
}

// HasRenewalTimer reports whether a renewal is armed
func (m *Manager) HasRenewalTimer() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer != nil
}

// SetCredential replaces the credential. An empty raw value signs out.
func (m *Manager) SetCredential(ctx context.Context, raw string) error {
	if raw == "" {
		return m.Clear(ctx)
	}
	return m.apply(ctx, raw, ReasonCredentialSet, nil)
}

// Clear drops the credential and everything cached with it
func (m *Manager) Clear(ctx context.Context) error {
	return m.transition(ctx, StateAnonymous, ReasonLogout, nil)
}

// Logout signs out explicitly
func (m *Manager) Logout(ctx context.Context) error {
	return m.transition(ctx, StateAnonymous, ReasonLogout, nil)
}

// ContinueAsGuest drops any credential and enters guest mode
func (m *Manager) ContinueAsGuest(ctx context.Context) error {
	return m.transition(ctx, StateGuest, ReasonGuest, nil)
}

// Restore reloads the cached session at startup. A cached credential goes
// through the same path as a fresh one, so an expired one is renewed at once.
func (m *Manager) Restore(ctx context.Context) error {
	cache, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, model.ErrCacheNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load cached session: %w", err)
	}

	m.auth.SetCookies(cache.Cookies)

	m.mu.Lock()
	m.language = cache.Language
	if cache.Credential != "" {
		m.identity = cache.Identity
	}
	m.mu.Unlock()

	if cache.Credential == "" {
		return nil
	}
	return m.apply(ctx, cache.Credential, ReasonRestored, nil)
}

// Login signs in with a username or email and a password
func (m *Manager) Login(ctx context.Context, emailOrUsername, password string) error {
	if emailOrUsername == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", model.ErrInvalidInput)
	}

	resp, err := m.auth.Login(ctx, api.LoginRequest{EmailOrUsername: emailOrUsername, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return m.signedIn(ctx, resp, ReasonLogin)
}

// Register creates an account and signs it in
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	if err := ValidateRegistration(username, email, password); err != nil {
		return err
	}

	resp, err := m.auth.Register(ctx, api.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return m.signedIn(ctx, resp, ReasonLogin)
}

// ValidateRegistration applies the service's sign-up rules before calling it
func ValidateRegistration(username, email, password string) error {
	switch {
	case username == "" || email == "" || password == "":
		return fmt.Errorf("%w: all fields are required", model.ErrInvalidInput)
	case len(password) < 6:
		return fmt.Errorf("%w: password must be at least 6 characters", model.ErrInvalidInput)
	case len(username) < 3:
		return fmt.Errorf("%w: username must be at least 3 characters", model.ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", model.ErrInvalidInput)
	}
	return nil
}

func (m *Manager) signedIn(ctx context.Context, resp *api.AuthResponse, reason Reason) error {
	m.mu.Lock()
	m.identity = model.Identity{}
	if resp.PreferredLanguage != "" {
		m.language = resp.PreferredLanguage
	}
	language := m.language
	m.mu.Unlock()

	if resp.PreferredLanguage != "" {
		if err := m.store.SaveLanguage(ctx, language); err != nil {
			m.logger.Warn("failed to persist language", slog.String("error", err.Error()))
		}
	}
	return m.apply(ctx, resp.Token, reason, nil)
}

// ApplyProfile caches the identity fields of a freshly fetched profile.
// Ignored unless signed in.
func (m *Manager) ApplyProfile(ctx context.Context, profile model.Profile) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	m.identity = profile.Identity()
	identity := m.identity
	m.mu.Unlock()

	if err := m.store.SaveIdentity(ctx, identity); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	return nil
}

// SetLanguage stores the language preference. When signed in the service is
// told as well; that call failing is only logged.
func (m *Manager) SetLanguage(ctx context.Context, language string) error {
	m.persistMu.Lock()
	m.mu.Lock()
	m.language = language
	authenticated := m.state == StateAuthenticated
	m.mu.Unlock()

	err := m.store.SaveLanguage(ctx, language)
	m.persistMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to persist language: %w", err)
	}

	if authenticated {
		if err := m.auth.ChangeLanguage(ctx, language); err != nil {
			m.logger.Warn("failed to save language on account",
				slog.String("language", language),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// DeleteAccount deletes the signed-in account and then signs out
func (m *Manager) DeleteAccount(ctx context.Context) error {
	m.mu.Lock()
	authenticated := m.state == StateAuthenticated
	m.mu.Unlock()
	if !authenticated {
		return model.ErrNotAuthenticated
	}

	if err := m.auth.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return m.transition(ctx, StateAnonymous, ReasonAccountDeleted, nil)
}

// Renew exchanges the reuse cookie for a new credential. Any failure signs
// the user out and is returned wrapped in model.ErrRenewalFailed.
func (m *Manager) Renew(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return model.ErrNotAuthenticated
	}
	gen := m.generation
	m.mu.Unlock()

	return m.renew(ctx, gen)
}

// Close stops the renewal timer and abandons renewals in flight.
// The cached session is left in place for the next run.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
	m.generation++
}

func (m *Manager) renew(ctx context.Context, gen uint64) error {
	m.logger.Debug("renewing credential")

	raw, err := m.auth.Refresh(ctx)
	if err == nil {
		cred := credential.Parse(raw)
		switch {
		case cred.Err() != nil:
			err = fmt.Errorf("malformed credential: %w", cred.Err())
		case cred.Remaining(m.clock.Now()) <= 0:
			err = model.ErrSessionExpired
		}
	}

	if err != nil {
		m.logger.Warn("credential renewal failed", slog.String("error", err.Error()))
		if terr := m.transition(ctx, StateAnonymous, ReasonRenewalFailed, &gen); terr != nil {
			m.logger.Error("failed to clear session", slog.String("error", terr.Error()))
		}
		return fmt.Errorf("%w: %w", model.ErrRenewalFailed, err)
	}

	return m.apply(ctx, raw, ReasonRenewed, &gen)
}

// apply installs a new credential. When expected is set the change only
// happens if no other transition happened since generation *expected.
func (m *Manager) apply(ctx context.Context, raw string, reason Reason, expected *uint64) error {
	cred := credential.Parse(raw)
	renewed := reason == ReasonRenewed

	m.persistMu.Lock()
	m.mu.Lock()
	if expected != nil && *expected != m.generation {
		m.mu.Unlock()
		m.persistMu.Unlock()
		m.logger.Debug("discarding stale credential", slog.String("reason", string(reason)))
		return nil
	}
	m.generation++
	gen := m.generation
	m.state = StateAuthenticated
	m.cred = cred
	m.reason = reason
	renewNow := m.scheduleRenewalLocked(gen, cred, renewed)
	m.mu.Unlock()

	if cred.Err() != nil {
		m.logger.Warn("credential could not be decoded, treating as expired", slog.String("error", cred.Err().Error()))
	}

	var persistErr error
	if err := m.store.SaveCredential(ctx, raw); err != nil {
		persistErr = fmt.Errorf("failed to persist credential: %w", err)
	} else if err := m.store.SaveCookies(ctx, m.auth.Cookies()); err != nil {
		persistErr = fmt.Errorf("failed to persist cookies: %w", err)
	}
	m.persistMu.Unlock()
	if persistErr != nil {
		m.logger.Warn("session not persisted", slog.String("error", persistErr.Error()))
	}

	m.notify(ctx)

	if renewNow {
		if err := m.renew(ctx, gen); err != nil {
			return err
		}
	}
	return persistErr
}

// scheduleRenewalLocked arms the renewal timer for cred, replacing any
// previous one. It returns true when renewal is due right away; the caller
// runs it once the lock is released.
func (m *Manager) scheduleRenewalLocked(gen uint64, cred credential.Credential, renewed bool) bool {
	m.stopTimerLocked()

	now := m.clock.Now()
	d := cred.RenewIn(now)
	if d <= 0 {
		if !renewed {
			return true
		}
		// A renewal handed back a credential already inside the guard window.
		// Renew again when it runs out rather than immediately.
		d = cred.Remaining(now)
	}

	m.timer = m.clock.AfterFunc(d, func() { m.onTimer(gen) })
	m.logger.Debug("renewal scheduled",
		slog.Duration("in", d),
		slog.Time("at", now.Add(d)))
	return false
}

func (m *Manager) onTimer(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.RenewTimeout)
	defer cancel()
	if err := m.renew(ctx, gen); err != nil {
		m.logger.Info("signed out after failed renewal", slog.String("error", err.Error()))
	}
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// transition leaves the authenticated state. The timer is cancelled before
// the credential is dropped so no renewal can fire against a cleared session.
func (m *Manager) transition(ctx context.Context, target State, reason Reason, expected *uint64) error {
	m.persistMu.Lock()
	m.mu.Lock()
	if expected != nil && *expected != m.generation {
		m.mu.Unlock()
		m.persistMu.Unlock()
		m.logger.Debug("discarding stale transition", slog.String("reason", string(reason)))
		return nil
	}
	m.stopTimerLocked()
	m.generation++
	m.state = target
	m.cred = credential.Credential{}
	m.identity = model.Identity{}
	m.language = ""
	m.reason = reason
	m.mu.Unlock()

	m.auth.ClearCookies()
	err := m.store.Clear(ctx)
	m.persistMu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed to clear cached session: %w", err)
	}

	m.logger.Info("session ended",
		slog.String("state", target.String()),
		slog.String("reason", string(reason)))

	m.notify(ctx)
	return err
}

func (m *Manager) notify(ctx context.Context) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	snap := m.snapshotLocked()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, snap)
	}
}
