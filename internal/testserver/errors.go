package testserver

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	errUserExists         = errors.New("user already exists")
	errInvalidCredentials = errors.New("invalid credentials")
	errMissingFields      = errors.New("missing fields")
	errNoRefreshToken     = errors.New("no refresh token")
	errNoClicksLeft       = errors.New("no free clicks left")
	errNoWinnings         = errors.New("no winnings to collect")
	errNoPaypal           = errors.New("no paypal email configured")
	errNotAdmin           = errors.New("admin only")
	errUnknownUser        = errors.New("unknown user")
)

// serviceError is an error response. The service is inconsistent about the
// body field carrying the message, so each error names its own.
type serviceError struct {
	status  int
	field   string
	message string
}

func (e *serviceError) Error() string {
	return e.message
}

// writeError writes err as a JSON error body
func writeError(w http.ResponseWriter, err error) {
	se := toServiceError(err)
	writeJSON(w, se.status, map[string]string{se.field: se.message})
}

func toServiceError(err error) *serviceError {
	var se *serviceError
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, errUserExists):
		return &serviceError{http.StatusConflict, "message", "User already exists"}
	case errors.Is(err, errInvalidCredentials):
		return &serviceError{http.StatusUnauthorized, "message", "Invalid credentials"}
	case errors.Is(err, errMissingFields):
		return &serviceError{http.StatusBadRequest, "message", "All fields are required"}
	case errors.Is(err, errNoRefreshToken):
		return &serviceError{http.StatusUnauthorized, "message", "No refresh token"}
	case errors.Is(err, errNoClicksLeft):
		return &serviceError{http.StatusBadRequest, "message", "No free clicks left"}
	case errors.Is(err, errNoWinnings):
		return &serviceError{http.StatusBadRequest, "error", "No winnings to collect"}
	case errors.Is(err, errNoPaypal):
		return &serviceError{http.StatusBadRequest, "error", "Set a PayPal email first"}
	case errors.Is(err, errNotAdmin):
		return &serviceError{http.StatusForbidden, "msg", "Admin access required"}
	case errors.Is(err, errUnknownUser):
		return &serviceError{http.StatusNotFound, "msg", "User not found"}
	default:
		return &serviceError{http.StatusInternalServerError, "message", "Internal server error"}
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &serviceError{http.StatusBadRequest, "message", "Invalid request body"}
	}
	return nil
}
