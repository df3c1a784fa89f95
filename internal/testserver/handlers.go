package testserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/clickpot/internal/model"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, errMissingFields)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		writeError(w, fmt.Errorf("failed to hash password: %w", err))
		return
	}

	s.mu.Lock()
	if s.findAccountLocked(req.Username) != nil || s.findAccountLocked(req.Email) != nil {
		s.mu.Unlock()
		writeError(w, errUserExists)
		return
	}
	s.accounts[req.Username] = &Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		FreeClicks:   s.cfg.StartingClicks,
	}
	s.mu.Unlock()

	s.logger.Info("account registered", slog.String("username", req.Username))
	s.signIn(w, req.Username, "", http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	account := s.findAccountLocked(req.EmailOrUsername)
	var username, language string
	var hash []byte
	if account != nil {
		username, language, hash = account.Username, account.Language, account.PasswordHash
	}
	s.mu.Unlock()

	if account == nil || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		writeError(w, errInvalidCredentials)
		return
	}
	s.signIn(w, username, language, http.StatusOK)
}

// findAccountLocked matches either the username or the email
func (s *Server) findAccountLocked(emailOrUsername string) *Account {
	if a, ok := s.accounts[emailOrUsername]; ok {
		return a
	}
	for _, a := range s.accounts {
		if a.Email == emailOrUsername {
			return a
		}
	}
	return nil
}

// currentAccountLocked returns the account of the authenticated caller
func (s *Server) currentAccountLocked(r *http.Request) (*Account, error) {
	account, ok := s.accounts[usernameFrom(r.Context())]
	if !ok {
		return nil, errUnknownUser
	}
	return account, nil
}

// handleRefresh rotates the reuse cookie and issues a new access token
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, errNoRefreshToken)
		return
	}

	s.mu.Lock()
	stored, ok := s.refresh[cookie.Value]
	delete(s.refresh, cookie.Value)
	_, exists := s.accounts[stored.username]
	s.mu.Unlock()

	if !ok || !exists || s.clock.Now().After(stored.expiresAt) {
		writeError(w, errNoRefreshToken)
		return
	}

	token, err := s.issueAccessToken(stored.username)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setRefreshCookie(w, stored.username)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	account, err := s.currentAccountLocked(r)
	if err != nil {
		s.mu.Unlock()
		writeError(w, err)
		return
	}
	profile := account.profile(s.adminBalance)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Language == "" {
		writeError(w, errMissingFields)
		return
	}

	s.mu.Lock()
	account, err := s.currentAccountLocked(r)
	if err != nil {
		s.mu.Unlock()
		writeError(w, err)
		return
	}
	account.Language = req.Language
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Language updated"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())

	s.mu.Lock()
	delete(s.accounts, username)
	for value, stored := range s.refresh {
		if stored.username == username {
			delete(s.refresh, value)
		}
	}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Value: "", Path: "/", MaxAge: -1})
	s.logger.Info("account deleted", slog.String("username", username))
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Account deleted"})
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]model.GameState{"gameState": s.State()})
}

// handleClick spends one click, applies milestone rewards and awards the
// pot when the round ends
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r.Context())

	s.mu.Lock()
	account, err := s.currentAccountLocked(r)
	if err != nil {
		s.mu.Unlock()
		writeError(w, err)
		return
	}
	if !account.unlimited() {
		if account.FreeClicks <= 0 {
			s.mu.Unlock()
			writeError(w, errNoClicksLeft)
			return
		}
		account.FreeClicks--
	}

	s.state.GlobalClicks++
	s.state.Pot += s.cfg.PotPerClick
	s.state.LastClickUser = &username
	s.adminBalance += s.cfg.AdminCut

	var message string
	if reward := s.cfg.Rewards[s.state.GlobalClicks]; reward > 0 && !account.unlimited() {
		account.FreeClicks += reward
		message = fmt.Sprintf("You won %d free clicks!", reward)
	}

	var winner *model.Winner
	if s.cfg.WinAt > 0 && s.state.GlobalClicks >= s.cfg.WinAt {
		winner = &model.Winner{Username: username, Pot: s.state.Pot}
		account.PotEarned += s.state.Pot
		s.winners = append([]model.WinnerRecord{{
			Username: username,
			Amount:   s.state.Pot,
			Date:     s.clock.Now().UTC().Format(time.RFC3339),
		}}, s.winners...)
		s.state.LastWinner = &username
		s.state.GlobalClicks = 0
		s.state.Pot = 0
		message = "You won the pot!"
	}
	state := s.state
	s.mu.Unlock()

	if winner != nil {
		s.logger.Info("pot awarded", slog.String("username", username), slog.Float64("pot", winner.Pot))
		s.hub.Publish(model.EventWinner, winner)
	}
	s.hub.Publish(model.EventStateUpdate, state)

	body := map[string]string{}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleWinners(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]model.WinnerRecord{"winners": s.Winners()})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	account, err := s.currentAccountLocked(r)
	if err != nil {
		s.mu.Unlock()
		writeError(w, err)
		return
	}
	username := account.Username
	switch {
	case account.PotEarned <= 0:
		s.mu.Unlock()
		writeError(w, errNoWinnings)
		return
	case account.PaypalEmail == "":
		s.mu.Unlock()
		writeError(w, errNoPaypal)
		return
	}
	amount := account.PotEarned
	account.PotEarned = 0
	s.mu.Unlock()

	txID := uuid.NewString()
	s.logger.Info("winnings paid out",
		slog.String("username", username),
		slog.Float64("amount", amount),
		slog.String("transaction_id", txID))
	writeJSON(w, http.StatusOK, map[string]string{"transactionId": txID})
}

func (s *Server) handleSetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaypalEmail string `json:"paypalEmail"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PaypalEmail == "" {
		writeError(w, errMissingFields)
		return
	}

	s.mu.Lock()
	account, err := s.currentAccountLocked(r)
	if err != nil {
		s.mu.Unlock()
		writeError(w, err)
		return
	}
	account.PaypalEmail = req.PaypalEmail
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment method updated"})
}

func (s *Server) handleAdminCollect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	account, err := s.currentAccountLocked(r)
	if err != nil {
		s.mu.Unlock()
		writeError(w, err)
		return
	}
	if !account.Role.UnlimitedRole() {
		s.mu.Unlock()
		writeError(w, errNotAdmin)
		return
	}
	if s.adminBalance <= 0 {
		s.mu.Unlock()
		writeError(w, errNoWinnings)
		return
	}
	s.adminBalance = 0
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"transactionId": uuid.NewString()})
}
