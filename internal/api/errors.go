package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/domain"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.CodeAuthentication, "Invalid credentials")
	ErrNotStaff           = apperr.New(apperr.CodeAuthentication, "Access denied. Not a staff user.")
	ErrNoToken            = apperr.New(apperr.CodeAuthorization, "Please log in as staff.")
	ErrSessionExpired     = apperr.New(apperr.CodeAuthorization, "Your staff session has expired. Please log in again.")
)

// ServerError is the backend's own error text together with its HTTP status.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// ServerMessage returns the backend's "error" text found anywhere in err's chain.
func ServerMessage(err error) (string, bool) {
	var se *ServerError
	if errors.As(err, &se) && strings.TrimSpace(se.Message) != "" {
		return se.Message, true
	}
	return "", false
}

func serverError(resp *resty.Response) *ServerError {
	se := &ServerError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*domain.ErrorBody); ok && body != nil {
		se.Message = body.Error
	}
	return se
}

// classify maps a finished request to the client's error codes.
// authed requests turn 401/403 into ErrSessionExpired.
func classify(op string, resp *resty.Response, err error, authed bool) error {
	if err != nil {
		return apperr.Wrap(apperr.CodeTransport, "Could not reach the restaurant. Check your connection and try again.",
			fmt.Errorf("%s: %w", op, err))
	}
	if !resp.IsError() {
		return nil
	}
	se := serverError(resp)
	if authed && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden) {
		return apperr.Wrap(apperr.CodeAuthorization, ErrSessionExpired.Message, se)
	}
	return apperr.Wrap(apperr.CodeBusiness, se.Message, se)
}
