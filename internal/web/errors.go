package web

// errors.go provides unified error responses for the API.
//
// Every error is:
//   - logged with full technical details and the request ID (server-side)
//   - mapped through core.MapError to a message, an action and a support code
//   - written as JSON with a status derived from the error's sentinel
//
// Handlers call s.respondError(w, r, err) and never pick status codes
// themselves.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/logging"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{ledger.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
	{ledger.ErrEmptyFile, http.StatusUnprocessableEntity},
	{core.ErrNoFile, http.StatusBadRequest},
	{core.ErrInvalidRequest, http.StatusBadRequest},
	{core.ErrUnknownProfile, http.StatusBadRequest},
	{core.ErrMissingAPIKey, http.StatusUnauthorized},
	{core.ErrInvalidAPIKey, http.StatusForbidden},
	{core.ErrRateLimited, http.StatusTooManyRequests},
	{core.ErrTooManyImports, http.StatusServiceUnavailable},
	{ledger.ErrPersistenceUnavailable, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
	{context.Canceled, http.StatusRequestTimeout},
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user-facing JSON form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
