package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cafeledger/internal/auth"
	"cafeledger/internal/core"
	"cafeledger/internal/log"
)

type identityKey struct{}

// localAdmin acts for every request when auth is disabled.
var localAdmin = auth.Identity{UserID: auth.UserID("local"), Username: "local", Role: auth.RoleAdmin}

// withIdentity attaches the caller's identity, if any, to the context. A
// bad or expired session leaves the request anonymous.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authEnabled {
			id := localAdmin
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, &id)))
			return
		}
		id, err := s.sessions.FromRequest(r)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				s.requestLogger(r).DebugContext(r.Context(), "Session rejected", log.FieldError, err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, &id)))
	})
}

// requireSession answers 401 to anonymous callers. With auth disabled every
// request already carries the local admin.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity(r) == nil {
			s.fail(w, r, log.OpList, core.ErrUnauthenticated)
			return
		}
		next(w, r)
	}
}

// identity returns the caller, or nil when anonymous.
func identity(r *http.Request) *auth.Identity {
	id, _ := r.Context().Value(identityKey{}).(*auth.Identity)
	return id
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var authErr *auth.AuthError
	switch {
	case errors.As(err, &authErr), errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal details of server errors.
func publicMessage(err error, status int) string {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case status == http.StatusUnauthorized:
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			return auth.ErrInvalidCredentials.Error()
		}
		return core.ErrUnauthenticated.Error()
	case status == http.StatusForbidden:
		return core.ErrForbidden.Error()
	case status == http.StatusNotFound:
		return "Not found"
	default:
		return "Something went wrong. Please try again."
	}
}

// fail logs err and answers with its mapped status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	l := s.requestLogger(r)
	if status >= 500 {
		l.ErrorContext(r.Context(), "Request failed", log.FieldOperation, op, log.FieldError, err)
	} else {
		l.InfoContext(r.Context(), "Request rejected", log.FieldOperation, op, log.FieldStatusCode, status, log.FieldError, err)
	}
	writeError(w, r, status, publicMessage(err, status))
}

// writeJSON writes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers {"error": msg}. HTMX requests also get a show-error
// trigger so the page can toast it.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if isHTMX(r) {
		NewHTMXResponse().TriggerError(msg).Header("Content-Type", "application/json").
			Status(status).BodyJSON(map[string]string{"error": msg}).Write(w)
		return
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
