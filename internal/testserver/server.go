// Package testserver is an in-process stand-in for the clickpot service.
// It implements the HTTP and push surface the client talks to, with
// simplified game rules, so the client can be exercised end to end.
package testserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/clickpot/internal/dependencies/clock"
	"github.com/mcoot/clickpot/internal/model"
)

// InfiniteClicks is the free click count reported for unlimited accounts
const InfiniteClicks int64 = 1<<53 - 1

// Account is a registered user as the service stores it
type Account struct {
	Username          string
	Email             string
	PasswordHash      []byte
	Role              model.Role
	FreeClicks        int64
	HasInfiniteClicks bool
	PotEarned         float64
	PaypalEmail       string
	Language          string
}

func (a *Account) profile(adminBalance float64) model.Profile {
	p := model.Profile{
		Username:          a.Username,
		Email:             a.Email,
		Role:              a.Role,
		FreeClicks:        a.FreeClicks,
		HasInfiniteClicks: a.HasInfiniteClicks,
		PotEarned:         a.PotEarned,
		PaypalEmail:       a.PaypalEmail,
	}
	if a.HasInfiniteClicks {
		p.FreeClicks = InfiniteClicks
	}
	if a.Role.UnlimitedRole() {
		p.AdminBalance = adminBalance
	}
	return p
}

func (a *Account) unlimited() bool {
	return a.HasInfiniteClicks || a.Role.UnlimitedRole()
}

type refreshToken struct {
	username  string
	expiresAt time.Time
}

// Server holds all service state in memory
type Server struct {
	cfg      Config
	clock    clock.Clock
	logger   *slog.Logger
	hub      *Hub
	upgrader websocket.Upgrader
	handler  http.Handler

	mu           sync.Mutex
	accounts     map[string]*Account
	refresh      map[string]refreshToken
	state        model.GameState
	winners      []model.WinnerRecord
	adminBalance float64
	failures     map[string][]int
	requests     map[string]int
}

// New creates a server and starts its push hub
func New(cfg Config, clk clock.Clock, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "testserver"))
	s := &Server{
		cfg:    cfg,
		clock:  clk,
		logger: logger,
		hub:    newHub(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		accounts: make(map[string]*Account),
		refresh:  make(map[string]refreshToken),
		failures: make(map[string][]int),
		requests: make(map[string]int),
	}
	go s.hub.Run()
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler serving every endpoint
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close disconnects all push clients
func (s *Server) Close() {
	s.hub.Close()
}

// Hub returns the push hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// FailNext makes the next n requests to path answer with status
func (s *Server) FailNext(path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range n {
		s.failures[path] = append(s.failures[path], status)
	}
}

// Requests returns how many requests reached path
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// State returns a copy of the game state
func (s *Server) State() model.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetGlobalClicks overwrites the global counter and broadcasts the new state
func (s *Server) SetGlobalClicks(clicks int64) {
	s.mu.Lock()
	s.state.GlobalClicks = clicks
	state := s.state
	s.mu.Unlock()
	s.hub.Publish(model.EventStateUpdate, state)
}

// Account returns a copy of the named account
func (s *Server) Account(username string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// UpdateAccount applies mutate to the named account
func (s *Server) UpdateAccount(username string, mutate func(*Account)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	if !ok {
		return false
	}
	mutate(a)
	return true
}

// AdminBalance returns the accumulated administrator cut
func (s *Server) AdminBalance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminBalance
}

// Winners returns the recorded winners, newest first
func (s *Server) Winners() []model.WinnerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.WinnerRecord, len(s.winners))
	copy(out, s.winners)
	return out
}

// RevokeRefreshTokens invalidates every issued reuse cookie
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}
