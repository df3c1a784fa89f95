package testserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/clickpot/internal/api"
	"github.com/mcoot/clickpot/internal/dependencies/mocks"
	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/testutil"
)

type ServerSuite struct {
	suite.Suite
	clock  *clockwork.FakeClock
	server *Server
	http   *httptest.Server
	ctx    context.Context
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.server = New(DefaultConfig(), s.clock, testutil.NopLogger())
	s.http = httptest.NewServer(s.server.Handler())
	s.ctx = context.Background()
}

func (s *ServerSuite) TearDownTest() {
	s.server.Close()
	s.http.Close()
}

// client returns an API client that remembers the last issued token
func (s *ServerSuite) client() (*api.Client, *string) {
	c, err := api.New(api.Config{BaseURL: s.http.URL, Timeout: 5 * time.Second}, testutil.NopLogger())
	s.Require().NoError(err)
	token := new(string)
	c.SetTokenSource(func() string { return *token })
	return c, token
}

func (s *ServerSuite) registered(username string) (*api.Client, *string) {
	c, token := s.client()
	resp, err := c.Register(s.ctx, api.RegisterRequest{Username: username, Email: username + "@example.com", Password: "hunter22"})
	s.Require().NoError(err)
	*token = resp.Token
	return c, token
}

func (s *ServerSuite) requireStatus(err error, status int, message string) {
	var se *api.StatusError
	s.Require().True(errors.As(err, &se), "expected a status error, got %v", err)
	s.Equal(status, se.Status)
	if message != "" {
		s.Equal(message, se.Message)
	}
}

func (s *ServerSuite) TestRegisterSignsIn() {
	c, _ := s.registered("alice")

	profile, err := c.Profile(s.ctx)
	s.Require().NoError(err)
	s.Equal("alice", profile.Username)
	s.Equal("alice@example.com", profile.Email)
	s.Equal(model.RoleUser, profile.Role)
	s.Equal(int64(10), profile.FreeClicks)
	s.Len(c.Cookies(), 1)
}

func (s *ServerSuite) TestRegisterRejectsDuplicates() {
	s.registered("alice")
	c, _ := s.client()

	_, err := c.Register(s.ctx, api.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "hunter22"})
	s.requireStatus(err, http.StatusConflict, "User already exists")

	_, err = c.Register(s.ctx, api.RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "hunter22"})
	s.requireStatus(err, http.StatusConflict, "User already exists")
}

func (s *ServerSuite) TestLoginByUsernameOrEmail() {
	s.registered("alice")
	c, _ := s.client()

	_, err := c.Login(s.ctx, api.LoginRequest{EmailOrUsername: "alice", Password: "hunter22"})
	s.NoError(err)
	_, err = c.Login(s.ctx, api.LoginRequest{EmailOrUsername: "alice@example.com", Password: "hunter22"})
	s.NoError(err)
	_, err = c.Login(s.ctx, api.LoginRequest{EmailOrUsername: "alice", Password: "wrong"})
	s.requireStatus(err, http.StatusUnauthorized, "Invalid credentials")
}

func (s *ServerSuite) TestLoginReturnsPreferredLanguage() {
	c, _ := s.registered("alice")
	s.Require().NoError(c.ChangeLanguage(s.ctx, "es"))

	other, _ := s.client()
	resp, err := other.Login(s.ctx, api.LoginRequest{EmailOrUsername: "alice", Password: "hunter22"})
	s.Require().NoError(err)
	s.Equal("es", resp.PreferredLanguage)
}

func (s *ServerSuite) TestAccessTokenExpires() {
	c, _ := s.registered("alice")

	s.clock.Advance(16 * time.Minute)
	_, err := c.Profile(s.ctx)
	s.requireStatus(err, http.StatusUnauthorized, "")
}

func (s *ServerSuite) TestRefreshRotatesCookie() {
	c, token := s.registered("alice")
	before := c.Cookies()

	s.clock.Advance(16 * time.Minute)
	fresh, err := c.Refresh(s.ctx)
	s.Require().NoError(err)
	*token = fresh

	_, err = c.Profile(s.ctx)
	s.NoError(err)
	s.NotEqual(before[0].Value, c.Cookies()[0].Value)

	// The old cookie was consumed by the rotation
	stale, _ := s.client()
	stale.SetCookies(before)
	_, err = stale.Refresh(s.ctx)
	s.requireStatus(err, http.StatusUnauthorized, "No refresh token")
}

func (s *ServerSuite) TestRefreshWithoutCookie() {
	c, _ := s.client()
	_, err := c.Refresh(s.ctx)
	s.requireStatus(err, http.StatusUnauthorized, "No refresh token")
}

func (s *ServerSuite) TestRevokedRefreshTokens() {
	c, _ := s.registered("alice")
	s.server.RevokeRefreshTokens()

	_, err := c.Refresh(s.ctx)
	s.True(api.IsUnauthorized(err))
}

func (s *ServerSuite) TestClickSpendsBudget() {
	c, _ := s.registered("alice")

	resp, err := c.Click(s.ctx)
	s.Require().NoError(err)
	s.Empty(resp.Message)

	profile, err := c.Profile(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(9), profile.FreeClicks)

	state, err := c.GameState(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), state.GlobalClicks)
	s.Equal(0.5, state.Pot)
	s.Require().NotNil(state.LastClickUser)
	s.Equal("alice", *state.LastClickUser)
}

func (s *ServerSuite) TestClickWithoutBudget() {
	c, _ := s.registered("alice")
	s.server.UpdateAccount("alice", func(a *Account) { a.FreeClicks = 0 })

	_, err := c.Click(s.ctx)
	s.requireStatus(err, http.StatusBadRequest, "No free clicks left")
	s.Equal(int64(0), s.server.State().GlobalClicks)
}

func (s *ServerSuite) TestClickRequiresToken() {
	c, _ := s.client()
	_, err := c.Click(s.ctx)
	s.requireStatus(err, http.StatusUnauthorized, "Missing token")
}

func (s *ServerSuite) TestMilestoneReward() {
	c, _ := s.registered("alice")
	s.server.SetGlobalClicks(9)

	resp, err := c.Click(s.ctx)
	s.Require().NoError(err)
	s.Equal("You won 100 free clicks!", resp.Message)

	profile, err := c.Profile(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(109), profile.FreeClicks)
}

func (s *ServerSuite) TestWinningThePot() {
	c, _ := s.registered("alice")
	s.server.SetGlobalClicks(99)

	resp, err := c.Click(s.ctx)
	s.Require().NoError(err)
	s.Equal("You won the pot!", resp.Message)

	state := s.server.State()
	s.Equal(int64(0), state.GlobalClicks)
	s.Zero(state.Pot)
	s.Require().NotNil(state.LastWinner)
	s.Equal("alice", *state.LastWinner)

	winners, err := c.Winners(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(winners, 1)
	s.Equal("alice", winners[0].Username)
	s.Equal(0.5, winners[0].Amount)
	s.Equal("2026-03-01T12:00:00Z", winners[0].Date)

	profile, err := c.Profile(s.ctx)
	s.Require().NoError(err)
	s.Equal(0.5, profile.PotEarned)
}

func (s *ServerSuite) TestUnlimitedAccounts() {
	c, _ := s.registered("alice")
	s.server.UpdateAccount("alice", func(a *Account) {
		a.FreeClicks = 0
		a.HasInfiniteClicks = true
	})

	_, err := c.Click(s.ctx)
	s.Require().NoError(err)

	profile, err := c.Profile(s.ctx)
	s.Require().NoError(err)
	s.Equal(InfiniteClicks, profile.FreeClicks)
	s.True(profile.Budget().Unlimited)
}

func (s *ServerSuite) TestCollect() {
	c, _ := s.registered("alice")

	_, err := c.Collect(s.ctx)
	s.requireStatus(err, http.StatusBadRequest, "No winnings to collect")

	s.server.UpdateAccount("alice", func(a *Account) { a.PotEarned = 12.5 })
	_, err = c.Collect(s.ctx)
	s.requireStatus(err, http.StatusBadRequest, "Set a PayPal email first")

	s.Require().NoError(c.SetPaymentMethod(s.ctx, "alice@paypal.example"))
	txID, err := c.Collect(s.ctx)
	s.Require().NoError(err)
	s.NotEmpty(txID)

	account, _ := s.server.Account("alice")
	s.Zero(account.PotEarned)
	s.Equal("alice@paypal.example", account.PaypalEmail)
}

func (s *ServerSuite) TestAdminCollect() {
	c, _ := s.registered("alice")
	_, err := c.Click(s.ctx)
	s.Require().NoError(err)

	_, err = c.AdminCollect(s.ctx)
	s.requireStatus(err, http.StatusForbidden, "Admin access required")

	s.server.UpdateAccount("alice", func(a *Account) { a.Role = model.RoleAdmin })
	profile, err := c.Profile(s.ctx)
	s.Require().NoError(err)
	s.InDelta(0.1, profile.AdminBalance, 1e-9)

	txID, err := c.AdminCollect(s.ctx)
	s.Require().NoError(err)
	s.NotEmpty(txID)
	s.Zero(s.server.AdminBalance())
}

func (s *ServerSuite) TestDeleteAccount() {
	c, _ := s.registered("alice")
	s.Require().NoError(c.DeleteAccount(s.ctx))

	_, err := c.Profile(s.ctx)
	s.requireStatus(err, http.StatusUnauthorized, "Unknown user")
	_, ok := s.server.Account("alice")
	s.False(ok)
}

func (s *ServerSuite) TestFailNext() {
	c, _ := s.registered("alice")
	s.server.FailNext("/api/game/click", http.StatusServiceUnavailable, 2)

	for range 2 {
		_, err := c.Click(s.ctx)
		s.requireStatus(err, http.StatusServiceUnavailable, "injected failure")
	}
	_, err := c.Click(s.ctx)
	s.NoError(err)
	s.Equal(3, s.server.Requests("/api/game/click"))
}
