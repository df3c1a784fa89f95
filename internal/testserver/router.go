package testserver

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.Use(recovery(s.logger))
	r.Use(logging(s.logger))
	r.Use(s.injectFailures)

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/user/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/user/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/user/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/game/state", s.handleGameState).Methods(http.MethodGet)
	api.HandleFunc("/winners", s.handleWinners).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleSSE).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	// Routes that require a bearer token
	protected := api.NewRoute().Subrouter()
	protected.Use(s.requireAuth)
	protected.HandleFunc("/user/profile", s.handleProfile).Methods(http.MethodGet)
	protected.HandleFunc("/user/change-language", s.handleChangeLanguage).Methods(http.MethodPut)
	protected.HandleFunc("/user/delete-account", s.handleDeleteAccount).Methods(http.MethodDelete)
	protected.HandleFunc("/game/click", s.handleClick).Methods(http.MethodPost)
	protected.HandleFunc("/winners/collect", s.handleCollect).Methods(http.MethodPost)
	protected.HandleFunc("/winners/setPaymentMethod", s.handleSetPaymentMethod).Methods(http.MethodPost)
	protected.HandleFunc("/admin/collect", s.handleAdminCollect).Methods(http.MethodPost)

	return r
}
