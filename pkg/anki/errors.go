package anki

import (
	"errors"
	"fmt"
)

// TransportError means AnkiConnect could not be reached at all.
type TransportError struct {
	Action string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("anki %s: cannot reach AnkiConnect at %s (is Anki running with the AnkiConnect add-on installed?): %v",
		e.Action, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means AnkiConnect answered but reported a failure.
type ProtocolError struct {
	Action     string
	StatusCode int
	Message    string
	Body       string
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != 200 {
		return fmt.Sprintf("anki %s: http status %d: %s", e.Action, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("anki %s: %s (response: %s)", e.Action, e.Message, e.Body)
}

// NoteTypeMissingError means the note type for a language has not been provisioned.
type NoteTypeMissingError struct {
	ModelName string
}

func (e *NoteTypeMissingError) Error() string {
	return fmt.Sprintf("note type %q does not exist in Anki; run `tutor setup-anki` to create the required note types", e.ModelName)
}

// IsTransport reports whether err was caused by an unreachable AnkiConnect.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsNoteTypeMissing reports whether err was caused by a missing note type.
func IsNoteTypeMissing(err error) bool {
	var me *NoteTypeMissingError
	return errors.As(err, &me)
}
