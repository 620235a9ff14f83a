package anki

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/japaniel/tutor/pkg/flashcard"
)

// Audio attaches a media file to a note field.
type Audio struct {
	Path  string
	Field string
}

type audioParam struct {
	Path     string   `json:"path"`
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

func audioParams(audio []Audio) []audioParam {
	var out []audioParam
	for _, a := range audio {
		if a.Path == "" {
			continue
		}
		out = append(out, audioParam{Path: a.Path, Filename: filepath.Base(a.Path), Fields: []string{a.Field}})
	}
	return out
}

type fieldValue struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

type noteInfo struct {
	NoteID    int64                 `json:"noteId"`
	ModelName string                `json:"modelName"`
	Tags      []string              `json:"tags"`
	Fields    map[string]fieldValue `json:"fields"`
}

func (n noteInfo) stored() flashcard.StoredNote {
	fields := make(map[string]string, len(n.Fields))
	for name, f := range n.Fields {
		fields[name] = f.Value
	}
	return flashcard.StoredNote{NoteID: n.NoteID, ModelName: n.ModelName, Fields: fields}
}

// FindNoteIDs returns the ids of notes matching an Anki search query.
func (c *Client) FindNoteIDs(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	if err := c.Do(ctx, ActionFindNotes, map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// NotesInfo fetches the stored field values of the given notes.
func (c *Client) NotesInfo(ctx context.Context, ids []int64) ([]flashcard.StoredNote, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var infos []noteInfo
	if err := c.Do(ctx, ActionNotesInfo, map[string]any{"notes": ids}, &infos); err != nil {
		return nil, err
	}
	out := make([]flashcard.StoredNote, 0, len(infos))
	for _, info := range infos {
		// notesInfo returns an empty object for ids that no longer exist.
		if info.NoteID == 0 {
			continue
		}
		out = append(out, info.stored())
	}
	return out, nil
}

// FindStoredNotes composes FindNoteIDs with NotesInfo.
func (c *Client) FindStoredNotes(ctx context.Context, query string) ([]flashcard.StoredNote, error) {
	ids, err := c.FindNoteIDs(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.NotesInfo(ctx, ids)
}

// FindNotes returns the flashcards matching query. An empty lang infers each
// card's variant from its note type.
func (c *Client) FindNotes(ctx context.Context, query string, lang flashcard.Language) ([]flashcard.Flashcard, error) {
	notes, err := c.FindStoredNotes(ctx, query)
	if err != nil {
		return nil, err
	}
	cards := make([]flashcard.Flashcard, 0, len(notes))
	for _, n := range notes {
		card, skipped := flashcard.FromStoredNote(n, lang)
		if skipped > 0 {
			c.logger.Warn("skipped unreadable related words",
				slog.Int64("note_id", n.NoteID), slog.Int("lines", skipped))
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// NoteFields returns a note's field values flattened to name -> value.
func (c *Client) NoteFields(ctx context.Context, noteID int64) (map[string]string, error) {
	notes, err := c.NotesInfo(ctx, []int64{noteID})
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("note %d not found", noteID)
	}
	return notes[0].Fields, nil
}

// CheckNoteTypeExists returns the note type name for lang, or a
// NoteTypeMissingError when it has not been provisioned. It never mutates Anki.
func (c *Client) CheckNoteTypeExists(ctx context.Context, lang flashcard.Language) (string, error) {
	name := lang.ModelName()
	names, err := c.ModelNames(ctx)
	if err != nil {
		return "", fmt.Errorf("check note type %q: %w", name, err)
	}
	if !slices.Contains(names, name) {
		return "", &NoteTypeMissingError{ModelName: name}
	}
	return name, nil
}

// AddFlashcard adds card to deck and returns the new note id.
func (c *Client) AddFlashcard(ctx context.Context, deck string, card flashcard.Flashcard, audio ...Audio) (int64, error) {
	model, err := c.CheckNoteTypeExists(ctx, card.Language)
	if err != nil {
		return 0, err
	}

	note := map[string]any{
		"deckName":  deck,
		"modelName": model,
		"fields":    card.Fields(),
		"options":   map[string]any{"allowDuplicate": false},
		"tags":      []string{flashcard.NoteTypePrefix, string(card.Language)},
	}
	if a := audioParams(audio); len(a) > 0 {
		note["audio"] = a
	}

	var id *int64
	if err := c.Do(ctx, ActionAddNote, map[string]any{"note": note}, &id); err != nil {
		return 0, fmt.Errorf("add %q to %q: %w", card.Word, deck, err)
	}
	if id == nil || *id == 0 {
		return 0, fmt.Errorf("add %q to %q: anki returned no note id", card.Word, deck)
	}
	c.logger.Info("note added", slog.String("word", card.Word), slog.String("deck", deck), slog.Int64("note_id", *id))
	return *id, nil
}

// UpdateFlashcard rewrites the content fields of a note. With an audio path it
// issues two requests: the first clears the audio field alongside the content
// fields, the second re-sends the same content with the new audio attached.
// A failure between the two leaves the note with new content and no audio.
func (c *Client) UpdateFlashcard(ctx context.Context, noteID int64, card flashcard.Flashcard, audioPath string) error {
	if noteID == 0 {
		return errors.New("update flashcard: note id is unset")
	}
	fields := card.Fields()

	if audioPath == "" {
		return c.updateNoteFields(ctx, noteID, fields, nil)
	}

	cleared := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		cleared[k] = v
	}
	cleared[flashcard.AudioField] = ""
	if err := c.updateNoteFields(ctx, noteID, cleared, nil); err != nil {
		return fmt.Errorf("clear audio: %w", err)
	}
	if err := c.updateNoteFields(ctx, noteID, fields, []Audio{{Path: audioPath, Field: flashcard.AudioField}}); err != nil {
		return fmt.Errorf("attach audio: %w", err)
	}
	return nil
}

func (c *Client) updateNoteFields(ctx context.Context, noteID int64, fields map[string]string, audio []Audio) error {
	note := map[string]any{"id": noteID, "fields": fields}
	if a := audioParams(audio); len(a) > 0 {
		note["audio"] = a
	}
	return c.Do(ctx, ActionUpdateNoteFields, map[string]any{"note": note}, nil)
}

// escapeQuery escapes characters that Anki treats specially inside a quoted term.
func escapeQuery(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `*`, `\*`, `_`, `\_`)
	return r.Replace(s)
}

// WordQuery matches notes in deck whose word field equals word exactly. A
// non-empty lang also restricts the match to that language's note type, so a
// word spelled the same in both scripts can have a card per language.
func WordQuery(deck, word string, lang flashcard.Language) string {
	q := fmt.Sprintf(`"deck:%s" "%s:%s"`, escapeQuery(deck), flashcard.WordField, escapeQuery(word))
	if lang != "" {
		q += fmt.Sprintf(` "note:%s"`, escapeQuery(lang.ModelName()))
	}
	return q
}

// DeckQuery matches every note in deck, including subdecks.
func DeckQuery(deck string) string {
	return fmt.Sprintf(`"deck:%s"`, escapeQuery(deck))
}

// LowRatedQuery matches notes in deck answered "again" or "hard" within the last days.
func LowRatedQuery(deck string, days int) string {
	d := escapeQuery(deck)
	return fmt.Sprintf(`("deck:%s" rated:%d:1 OR "deck:%s" rated:%d:2)`, d, days, d, days)
}
