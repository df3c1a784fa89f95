package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-success response from the service
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// errorBody covers the three shapes the service uses for error messages
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Msg     string `json:"msg"`
}

func newStatusError(status int, body []byte) *StatusError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		for _, m := range []string{eb.Message, eb.Error, eb.Msg} {
			if m != "" {
				return &StatusError{Status: status, Message: m}
			}
		}
	}
	return &StatusError{Status: status, Message: fmt.Sprintf("HTTP %d", status)}
}

// IsUnauthorized reports whether err is a 401 or 403 from the service
func IsUnauthorized(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden
	}
	return false
}
