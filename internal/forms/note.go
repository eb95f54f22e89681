package forms

import (
	"strings"

	"cafeledger/internal/core"
)

// MaxNoteLength bounds a note body.
const MaxNoteLength = 2000

// NoteText trims text and rejects empty or oversized notes.
func NoteText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", &core.ValidationError{Field: "text", Message: "Note cannot be empty", Err: core.ErrEmptyNote}
	}
	if len(t) > MaxNoteLength {
		return "", core.NewValidationError("text", "Note is too long")
	}
	return t, nil
}
