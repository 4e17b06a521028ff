package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"econdash/internal/errors"
)

// Problem is an RFC 7807 error document.
type Problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewProblem creates a problem document for status.
func NewProblem(status int, detail string) *Problem {
	title := http.StatusText(status)
	return &Problem{
		Type:   "/errors/" + strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var verr *errors.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, errors.ErrUnknownColumn),
		errors.Is(err, errors.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrUnknownCurrency),
		errors.Is(err, errors.ErrDataNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errors.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, errors.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a problem document. Internal errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "An unexpected error occurred"
	}
	writeProblem(w, r, NewProblem(status, detail))
}

// writeProblem writes p with the problem+json content type, which
// render.JSON would overwrite.
func writeProblem(w http.ResponseWriter, r *http.Request, p *Problem) {
	p.Instance = r.URL.Path
	p.RequestID = middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
