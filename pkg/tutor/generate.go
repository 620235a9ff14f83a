package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/db"
	"github.com/japaniel/tutor/pkg/flashcard"
)

// Outcome is what happened to one word.
type Outcome string

const (
	Added    Outcome = "added"
	Exists   Outcome = "exists"
	Declined Outcome = "declined"
	Failed   Outcome = "failed"
	Updated  Outcome = "updated"
)

func (o Outcome) status() db.Status {
	switch o {
	case Added:
		return db.StatusAdded
	case Exists:
		return db.StatusExists
	case Declined:
		return db.StatusDeclined
	case Updated:
		return db.StatusRegenerated
	default:
		return db.StatusFailed
	}
}

// WordResult is the outcome for one input word.
type WordResult struct {
	Word    string
	Outcome Outcome
	NoteID  int64
	Card    flashcard.Flashcard
	// Err explains a Failed outcome.
	Err error
	// AudioErr is set when the card was written without audio.
	AudioErr error
}

// Report aggregates a batch.
type Report struct {
	Results []WordResult
	// Interrupted is set when the batch stopped early on cancellation.
	Interrupted bool
}

// Count returns how many words ended with o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Added is the number of cards written.
func (r Report) Added() int { return r.Count(Added) }

// GenerateForWords adds a card for every word that the deck does not hold yet.
// Item failures are reported and skipped. A structural failure stops the batch
// and is returned together with the results so far. Cancellation stops the
// batch and marks the report as interrupted.
func (s *Service) GenerateForWords(ctx context.Context, words []string, opts Options) (Report, error) {
	var report Report
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		if ctx.Err() != nil {
			report.Interrupted = true
			return report, nil
		}

		res, err := s.generateWord(ctx, word, opts)
		if err != nil {
			if ctx.Err() != nil {
				report.Interrupted = true
				return report, nil
			}
			if IsStructural(err) {
				return report, err
			}
			res = WordResult{Word: word, Outcome: Failed, Err: err}
		}
		s.logResult(res)
		s.record(res, opts, opts.Deck, 0)
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// generateWord returns a non-nil error only for failures that end the item
// without a result of their own.
func (s *Service) generateWord(ctx context.Context, word string, opts Options) (WordResult, error) {
	normalized, err := s.norm.Normalize(word, opts.Language)
	if err != nil {
		return WordResult{}, fmt.Errorf("normalize %q: %w", word, err)
	}
	res := WordResult{Word: normalized}

	id, found, err := s.existing(ctx, opts.Deck, normalized, opts.Language)
	if err != nil {
		return WordResult{}, err
	}
	if found {
		res.Outcome = Exists
		res.NoteID = id
		return res, nil
	}

	card, err := s.gen.GenerateFlashcard(ctx, normalized, opts.Language)
	if err != nil {
		return WordResult{}, fmt.Errorf("generate %q: %w", normalized, err)
	}
	card.Language = opts.Language
	if err := s.normalizeCard(&card); err != nil {
		return WordResult{}, fmt.Errorf("normalize %q: %w", normalized, err)
	}
	// The card is stored under the word that was looked up so the next
	// existence check finds it.
	card.Word = normalized

	return s.commit(ctx, res, card, opts.Deck, opts)
}

// existing looks for a note with word in deck.
func (s *Service) existing(ctx context.Context, deck, word string, lang flashcard.Language) (int64, bool, error) {
	cards, err := s.store.FindNotes(ctx, anki.WordQuery(deck, word, lang), lang)
	if err != nil {
		return 0, false, fmt.Errorf("look up %q in %q: %w", word, deck, err)
	}
	if len(cards) == 0 {
		return 0, false, nil
	}
	return cards[0].NoteID, true, nil
}

// commit confirms, attaches audio and adds card to deck.
func (s *Service) commit(ctx context.Context, res WordResult, card flashcard.Flashcard, deck string, opts Options) (WordResult, error) {
	res.Card = card
	if !opts.SkipConfirm && s.confirm != nil && !s.confirm(card) {
		res.Outcome = Declined
		return res, nil
	}

	var audio []anki.Audio
	path, audioErr := s.synthesize(ctx, card)
	res.AudioErr = audioErr
	if path != "" {
		audio = append(audio, anki.Audio{Path: path, Field: flashcard.AudioField})
	}

	id, err := s.store.AddFlashcard(ctx, deck, card, audio...)
	if err != nil {
		return WordResult{}, err
	}
	res.Outcome = Added
	res.NoteID = id
	res.Card.NoteID = id
	return res, nil
}

func (s *Service) logResult(res WordResult) {
	attrs := []any{slog.String("word", res.Word), slog.String("outcome", string(res.Outcome))}
	if res.NoteID != 0 {
		attrs = append(attrs, slog.Int64("note_id", res.NoteID))
	}
	switch {
	case res.Err != nil:
		var verr *flashcard.ValidationError
		if errors.As(res.Err, &verr) {
			attrs = append(attrs, slog.Any("problems", verr.Problems))
		}
		s.logger.Error("word failed", append(attrs, slog.Any("error", res.Err))...)
	default:
		s.logger.Info("word processed", attrs...)
	}
}
