// Package game keeps the locally displayed game state in step with the
// service.
//
// Clicks are applied optimistically and rolled back by their own delta when
// the service rejects them. Pushed snapshots replace the state wholesale.
// Profile fetches are sequence numbered; only the latest issued one applies.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/clickpot/internal/api"
	"github.com/mcoot/clickpot/internal/dependencies/random"
	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/session"
)

// GameAPI is the part of the service the synchronizer talks to
type GameAPI interface {
	GameState(ctx context.Context) (*model.GameState, error)
	Click(ctx context.Context) (*api.ClickResponse, error)
	Profile(ctx context.Context) (*model.Profile, error)
	Collect(ctx context.Context) (string, error)
	AdminCollect(ctx context.Context) (string, error)
	SetPaymentMethod(ctx context.Context, paypalEmail string) error
}

// Session is the read side of the session plus profile write-back
type Session interface {
	Snapshot() session.Snapshot
	CanAct() bool
	ApplyProfile(ctx context.Context, profile model.Profile) error
}

// Config holds synchronizer settings
type Config struct {
	Milestones Milestones
}

// DefaultConfig returns sensible defaults for the synchronizer
func DefaultConfig() Config {
	return Config{Milestones: DefaultMilestones()}
}

// Synchronizer is the sole writer of the displayed GameState and budget
type Synchronizer struct {
	api     GameAPI
	session Session
	random  random.Random
	cfg     Config
	logger  *slog.Logger

	mu             sync.Mutex
	state          model.GameState
	stateEpoch     uint64
	budget         model.ClickBudget
	infiniteGrant  bool
	potEarned      float64
	paypalEmail    string
	adminBalance   float64
	profileEpoch   uint64
	profileSeq     uint64
	pending        map[uuid.UUID]PendingAction
	connectedUsers int
	lastErr        string
	announcements  []model.Winner
	observers      []func(View)
}

// New creates a synchronizer with an empty state
func New(gameAPI GameAPI, sess Session, rnd random.Random, cfg Config, logger *slog.Logger) *Synchronizer {
	if len(cfg.Milestones) == 0 {
		cfg.Milestones = DefaultMilestones()
	}
	return &Synchronizer{
		api:     gameAPI,
		session: sess,
		random:  rnd,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "game")),
		pending: make(map[uuid.UUID]PendingAction),
	}
}

// OnChange registers an observer called with a fresh View after every change
func (s *Synchronizer) OnChange(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// View returns the current projection
func (s *Synchronizer) View() View {
	snap := s.session.Snapshot()
	canAct := s.session.CanAct()

	s.mu.Lock()
	defer s.mu.Unlock()

	unlimited := HasUnlimitedActions(snap.Identity.Role, s.grantLocked())
	return View{
		State:            s.state,
		Budget:           s.budget,
		Unlimited:        unlimited,
		ConnectedUsers:   s.connectedUsers,
		Milestone:        s.cfg.Milestones.Status(s.state.GlobalClicks),
		Ring:             RingProgress(s.state.GlobalClicks),
		CanClick:         canAct && (unlimited || s.budget.Remaining > 0),
		Pending:          len(s.pending),
		Error:            s.lastErr,
		Session:          snap.State,
		Username:         snap.Identity.Username,
		Role:             snap.Identity.Role,
		PotEarned:        s.potEarned,
		PayoutConfigured: s.paypalEmail != "",
		AdminBalance:     s.adminBalance,
	}
}

func (s *Synchronizer) grantLocked() bool {
	return s.infiniteGrant || s.budget.Unlimited
}

// Click applies one click optimistically and confirms it with the service.
// On rejection this click's own delta is undone and the error kept for display.
func (s *Synchronizer) Click(ctx context.Context) (Ack, error) {
	if !s.session.CanAct() {
		return Ack{}, model.ErrNotAuthenticated
	}
	role := s.session.Snapshot().Identity.Role

	s.mu.Lock()
	unlimited := HasUnlimitedActions(role, s.grantLocked())
	if !unlimited && s.budget.Remaining <= 0 {
		s.mu.Unlock()
		return Ack{}, model.ErrNoClicksLeft
	}

	action := PendingAction{
		ID:           uuid.New(),
		ClicksDelta:  1,
		StateEpoch:   s.stateEpoch,
		ProfileEpoch: s.profileEpoch,
	}
	s.state.GlobalClicks += action.ClicksDelta
	if !unlimited && s.budget.Remaining > 0 {
		action.BudgetDelta = 1
		s.budget.Remaining -= action.BudgetDelta
	}
	s.pending[action.ID] = action
	ack := Ack{ID: action.ID, Offset: s.random.Intn(AckSpread)}
	s.mu.Unlock()
	s.changed()

	_, err := s.api.Click(ctx)

	s.mu.Lock()
	delete(s.pending, action.ID)
	if err != nil {
		s.rollbackLocked(action)
		s.lastErr = errorMessage(err, "click failed")
	}
	s.mu.Unlock()
	s.changed()

	if err != nil {
		s.logger.Info("click rolled back", slog.String("error", err.Error()))
		return ack, fmt.Errorf("click rejected: %w", err)
	}

	if err := s.RefreshProfile(ctx); err != nil {
		s.logger.Warn("profile refresh after click failed", slog.String("error", err.Error()))
	}
	return ack, nil
}

// rollbackLocked undoes action's deltas unless a newer authoritative
// snapshot has already replaced the value they were applied to
func (s *Synchronizer) rollbackLocked(action PendingAction) {
	if action.StateEpoch == s.stateEpoch {
		s.state.GlobalClicks = max(s.state.GlobalClicks-action.ClicksDelta, 0)
	}
	if action.ProfileEpoch == s.profileEpoch {
		s.budget.Remaining += action.BudgetDelta
	}
}

// ApplySnapshot replaces the state with a pushed one. Any optimistic delta
// still displayed is dropped; the snapshot accounts for it.
func (s *Synchronizer) ApplySnapshot(ctx context.Context, state model.GameState) {
	s.replaceState(state)

	if s.session.Snapshot().IsAuthenticated() {
		if err := s.RefreshProfile(ctx); err != nil {
			s.logger.Warn("profile refresh after state update failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Synchronizer) replaceState(state model.GameState) {
	s.mu.Lock()
	s.state = state
	s.stateEpoch++
	s.mu.Unlock()
	s.changed()
}

// ApplyWinner queues a one-time announcement and refreshes the profile so a
// payout shows up
func (s *Synchronizer) ApplyWinner(ctx context.Context, winner model.Winner) {
	s.mu.Lock()
	s.announcements = append(s.announcements, winner)
	s.mu.Unlock()
	s.changed()

	if s.session.Snapshot().IsAuthenticated() {
		if err := s.RefreshProfile(ctx); err != nil {
			s.logger.Warn("profile refresh after winner failed", slog.String("error", err.Error()))
		}
	}
}

// ApplyUserCount sets the connected users indicator
func (s *Synchronizer) ApplyUserCount(count int) {
	s.mu.Lock()
	s.connectedUsers = count
	s.mu.Unlock()
	s.changed()
}

// TakeAnnouncements returns and clears queued winner announcements
func (s *Synchronizer) TakeAnnouncements() []model.Winner {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.announcements
	s.announcements = nil
	return out
}

// LoadState fetches the state from the service. On failure the local state
// is left alone and the error is kept for display.
func (s *Synchronizer) LoadState(ctx context.Context) error {
	state, err := s.api.GameState(ctx)
	if err != nil {
		s.setError(errorMessage(err, "could not load game state"))
		return fmt.Errorf("failed to load game state: %w", err)
	}
	s.replaceState(*state)
	return nil
}

// RefreshProfile fetches the profile and reconciles budget, winnings and
// payout address. Responses to all but the latest issued fetch are dropped.
func (s *Synchronizer) RefreshProfile(ctx context.Context) error {
	if !s.session.Snapshot().IsAuthenticated() {
		return model.ErrNotAuthenticated
	}

	s.mu.Lock()
	s.profileSeq++
	seq := s.profileSeq
	s.mu.Unlock()

	profile, err := s.api.Profile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	s.mu.Lock()
	if seq != s.profileSeq {
		s.mu.Unlock()
		s.logger.Debug("discarding stale profile", slog.Uint64("seq", seq))
		return nil
	}
	s.budget = profile.Budget()
	s.infiniteGrant = profile.HasInfiniteClicks
	s.potEarned = profile.PotEarned
	s.paypalEmail = profile.PaypalEmail
	s.adminBalance = profile.AdminBalance
	s.profileEpoch++
	s.mu.Unlock()

	if err := s.session.ApplyProfile(ctx, *profile); err != nil {
		s.logger.Warn("failed to cache identity", slog.String("error", err.Error()))
	}
	s.changed()
	return nil
}

// CollectWinnings pays out the user's winnings. The displayed amount drops
// to zero at once and comes back if the payout fails.
func (s *Synchronizer) CollectWinnings(ctx context.Context) (string, error) {
	if !s.session.CanAct() {
		return "", model.ErrNotAuthenticated
	}

	s.mu.Lock()
	if s.potEarned <= 0 {
		s.mu.Unlock()
		return "", model.ErrNoWinnings
	}
	if s.paypalEmail == "" {
		s.mu.Unlock()
		return "", model.ErrNoPayoutInfo
	}
	original := s.potEarned
	epoch := s.profileEpoch
	s.potEarned = 0
	s.mu.Unlock()
	s.changed()

	txID, err := s.api.Collect(ctx)
	if err != nil {
		s.mu.Lock()
		if epoch == s.profileEpoch {
			s.potEarned = original
		}
		s.lastErr = errorMessage(err, "could not collect winnings")
		s.mu.Unlock()
		s.changed()
		return "", fmt.Errorf("collect failed: %w", err)
	}

	if err := s.RefreshProfile(ctx); err != nil {
		s.logger.Warn("profile refresh after collect failed", slog.String("error", err.Error()))
	}
	return txID, nil
}

// AdminCollect pays out the administrator balance
func (s *Synchronizer) AdminCollect(ctx context.Context) (string, error) {
	if !s.session.CanAct() {
		return "", model.ErrNotAuthenticated
	}
	if !s.session.Snapshot().Identity.Role.UnlimitedRole() {
		return "", model.ErrForbidden
	}

	txID, err := s.api.AdminCollect(ctx)
	if err != nil {
		s.setError(errorMessage(err, "could not collect admin balance"))
		return "", fmt.Errorf("admin collect failed: %w", err)
	}

	if err := s.RefreshProfile(ctx); err != nil {
		s.logger.Warn("profile refresh after admin collect failed", slog.String("error", err.Error()))
	}
	return txID, nil
}

// SetPaymentMethod sets the payout address for winnings
func (s *Synchronizer) SetPaymentMethod(ctx context.Context, paypalEmail string) error {
	if !s.session.CanAct() {
		return model.ErrNotAuthenticated
	}
	if paypalEmail == "" {
		return fmt.Errorf("%w: payout email is required", model.ErrInvalidInput)
	}

	if err := s.api.SetPaymentMethod(ctx, paypalEmail); err != nil {
		s.setError(errorMessage(err, "could not save payout method"))
		return fmt.Errorf("failed to set payment method: %w", err)
	}

	s.mu.Lock()
	s.paypalEmail = paypalEmail
	s.mu.Unlock()
	s.changed()

	if err := s.RefreshProfile(ctx); err != nil {
		s.logger.Warn("profile refresh after payout change failed", slog.String("error", err.Error()))
	}
	return nil
}

// Resync reloads state and profile, e.g. after clicks were bought elsewhere
func (s *Synchronizer) Resync(ctx context.Context) error {
	err := s.LoadState(ctx)
	if s.session.Snapshot().IsAuthenticated() {
		err = errors.Join(err, s.RefreshProfile(ctx))
	}
	return err
}

// DismissError clears the displayed error
func (s *Synchronizer) DismissError() {
	s.setError("")
}

// OnSession follows session transitions. Signing in loads state and
// profile; leaving the session drops everything derived from the profile
// and any profile fetch still in flight.
func (s *Synchronizer) OnSession(ctx context.Context, snap session.Snapshot) {
	if !snap.IsAuthenticated() {
		s.mu.Lock()
		s.budget = model.ClickBudget{}
		s.infiniteGrant = false
		s.potEarned = 0
		s.paypalEmail = ""
		s.adminBalance = 0
		s.profileSeq++
		s.profileEpoch++
		s.mu.Unlock()
		s.changed()
		return
	}

	if err := s.Resync(ctx); err != nil {
		s.logger.Warn("resync after sign-in failed", slog.String("error", err.Error()))
	}
}

func (s *Synchronizer) setError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	s.changed()
}

func (s *Synchronizer) changed() {
	s.mu.Lock()
	observers := append([]func(View)(nil), s.observers...)
	s.mu.Unlock()
	if len(observers) == 0 {
		return
	}

	v := s.View()
	for _, fn := range observers {
		fn(v)
	}
}

// errorMessage prefers the service's own message
func errorMessage(err error, fallback string) string {
	var se *api.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
