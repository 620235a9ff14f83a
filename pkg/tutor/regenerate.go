package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/japaniel/tutor/pkg/anki"
)

// Regenerate replaces the content and audio of the single card holding word.
// It returns ErrNotFound or ErrAmbiguous when the word does not identify
// exactly one card.
func (s *Service) Regenerate(ctx context.Context, word string, opts Options) (WordResult, error) {
	word = strings.TrimSpace(word)
	normalized, err := s.norm.Normalize(word, opts.Language)
	if err != nil {
		return WordResult{}, fmt.Errorf("normalize %q: %w", word, err)
	}
	res := WordResult{Word: normalized}

	cards, err := s.store.FindNotes(ctx, anki.WordQuery(opts.Deck, normalized, opts.Language), opts.Language)
	if err != nil {
		return res, err
	}
	switch len(cards) {
	case 0:
		return res, fmt.Errorf("%w: %q in %q", ErrNotFound, normalized, opts.Deck)
	case 1:
	default:
		return res, fmt.Errorf("%w: %d cards for %q", ErrAmbiguous, len(cards), normalized)
	}
	noteID := cards[0].NoteID

	card, err := s.gen.GenerateFlashcard(ctx, normalized, opts.Language)
	if err != nil {
		res.Outcome = Failed
		res.Err = err
		s.record(res, opts, opts.Deck, 0)
		return res, fmt.Errorf("generate %q: %w", normalized, err)
	}
	card.Language = opts.Language
	if err := s.normalizeCard(&card); err != nil {
		return res, err
	}
	card.Word = normalized
	card.NoteID = noteID
	res.Card = card
	res.NoteID = noteID

	if !opts.SkipConfirm && s.confirm != nil && !s.confirm(card) {
		res.Outcome = Declined
		s.record(res, opts, opts.Deck, 0)
		return res, nil
	}

	path, audioErr := s.synthesize(ctx, card)
	res.AudioErr = audioErr
	if err := s.store.UpdateFlashcard(ctx, noteID, card, path); err != nil {
		return res, err
	}
	res.Outcome = Updated
	s.logger.Info("card regenerated", slog.String("word", normalized), slog.Int64("note_id", noteID))
	s.record(res, opts, opts.Deck, 0)
	return res, nil
}
