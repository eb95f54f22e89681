package http

import (
	"net/http"

	"cafeledger/internal/auth"
	"cafeledger/internal/core"
	"cafeledger/internal/log"
)

type sessionResponse struct {
	Authenticated bool                 `json:"authenticated"`
	AuthEnabled   bool                 `json:"authEnabled"`
	User          *auth.Identity       `json:"user,omitempty"`
	Permissions   map[auth.Action]bool `json:"permissions"`
}

func (s *Server) session(r *http.Request) sessionResponse {
	id := identity(r)
	resp := sessionResponse{AuthEnabled: s.authEnabled, Permissions: auth.Permissions("")}
	if id != nil {
		resp.Authenticated = true
		resp.User = id
		resp.Permissions = auth.Permissions(id.Role)
	}
	return resp
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.authEnabled {
		writeJSON(w, http.StatusOK, s.session(r))
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, log.OpLogin, core.NewValidationError("body", "Could not read the login form"))
		return
	}
	username, password := p.Get("username"), p.Get("password")
	if username == "" || password == "" {
		s.fail(w, r, log.OpLogin, core.NewValidationError("username", "Username and password are required"))
		return
	}

	id, err := s.resolver.Resolve(r.Context(), username, password)
	if err != nil {
		s.requestLogger(r).WarnContext(r.Context(), "Login failed",
			log.FieldUsername, username,
			log.FieldClientIP, s.detector.ExtractClientIP(r))
		s.fail(w, r, log.OpLogin, err)
		return
	}
	if err := s.sessions.SetCookie(w, id); err != nil {
		s.fail(w, r, log.OpLogin, err)
		return
	}
	s.requestLogger(r).InfoContext(r.Context(), "Login succeeded",
		log.FieldUsername, id.Username, log.FieldRole, string(id.Role))

	NewHTMXResponse().TriggerLedgerChanged().TriggerNotesChanged().
		BodyJSON(sessionResponse{
			Authenticated: true,
			AuthEnabled:   true,
			User:          &id,
			Permissions:   auth.Permissions(id.Role),
		}).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.sessions != nil {
		s.sessions.ClearCookie(w)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session(r))
}
