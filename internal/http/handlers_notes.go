package http

import (
	"net/http"

	"cafeledger/internal/log"
)

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.ledger.Notes(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, http.StatusBadRequest, "Could not read the note")
		return
	}
	if err := s.ledger.CreateNote(r.Context(), identity(r), p.Get("text")); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewHTMXResponse().Status(http.StatusCreated).TriggerNotesChanged().TriggerFormReset().
		BodyJSON(map[string]bool{"ok": true}).Write(w)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteNote(r.Context(), identity(r), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewHTMXResponse().TriggerNotesChanged().
		BodyJSON(map[string]bool{"ok": true}).Write(w)
}
