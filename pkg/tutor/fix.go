package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/flashcard"
)

// FixOptions controls a fix-up pass over a deck.
type FixOptions struct {
	Options
	DryRun bool
	// Limit caps the number of cards that get work done; zero means no cap.
	Limit int
	// ForceUpdate regenerates content and audio for every card.
	ForceUpdate bool
}

// FixStats summarises a fix-up pass. Skipped counts cards that needed no
// work; Deferred counts cards that needed work after Limit was reached.
type FixStats struct {
	Total        int
	Updated      int
	AudioUpdated int
	Skipped      int
	Deferred     int
	Failed       int
	Interrupted  bool
}

// FixCards fills in missing content and audio for the cards in a deck. Only
// empty fields are regenerated unless ForceUpdate is set. Audio is rebuilt
// when it is missing, when the sample usage changed, or on ForceUpdate, and
// only when a speaker is configured. A card whose audio alone could not be
// made counts as failed. In a dry run nothing is generated or written and the stats count planned work.
func (s *Service) FixCards(ctx context.Context, opts FixOptions) (FixStats, error) {
	var stats FixStats
	notes, err := s.store.FindStoredNotes(ctx, anki.DeckQuery(opts.Deck))
	if err != nil {
		return stats, err
	}
	stats.Total = len(notes)

	worked := 0
	for _, note := range notes {
		if ctx.Err() != nil {
			stats.Interrupted = true
			return stats, nil
		}

		lang := opts.Language
		if lang == "" {
			lang = flashcard.InferLanguage(note.ModelName)
		}
		missing := flashcard.MissingContent(note, lang)
		needsContent := len(missing) > 0 || opts.ForceUpdate
		needsAudio := s.speaker != nil && (strings.TrimSpace(note.Fields[flashcard.AudioField]) == "" || opts.ForceUpdate)
		if !needsContent && !needsAudio {
			stats.Skipped++
			continue
		}
		if opts.Limit > 0 && worked >= opts.Limit {
			stats.Deferred++
			continue
		}
		worked++

		log := s.logger.With(slog.Int64("note_id", note.NoteID), slog.String("word", note.Fields[flashcard.WordField]))
		if opts.DryRun {
			log.Info("would update card", slog.Any("missing", missing), slog.Bool("audio", needsAudio))
			if needsContent {
				stats.Updated++
			}
			if needsAudio {
				stats.AudioUpdated++
			}
			continue
		}

		content, audio, err := s.fixNote(ctx, note, lang, missing, needsAudio, opts)
		if err != nil {
			if ctx.Err() != nil {
				stats.Interrupted = true
				return stats, nil
			}
			if IsStructural(err) {
				return stats, err
			}
			stats.Failed++
			log.Error("fix card failed", slog.Any("error", err))
			continue
		}
		if content {
			stats.Updated++
		}
		if audio {
			stats.AudioUpdated++
		}
	}
	return stats, nil
}

func (s *Service) fixNote(ctx context.Context, note flashcard.StoredNote, lang flashcard.Language, missing []string, needsAudio bool, opts FixOptions) (content, audio bool, err error) {
	card, skipped := flashcard.FromStoredNote(note, lang)
	if skipped > 0 {
		s.logger.Warn("unreadable related word lines", slog.Int64("note_id", note.NoteID), slog.Int("skipped", skipped))
	}
	if card.Word == "" {
		return false, false, fmt.Errorf("note %d has no %s field", note.NoteID, flashcard.WordField)
	}

	if len(missing) > 0 || opts.ForceUpdate {
		generated, err := s.gen.GenerateFlashcard(ctx, card.Word, lang)
		if err != nil {
			return false, false, fmt.Errorf("generate %q: %w", card.Word, err)
		}
		generated.Language = lang
		if err := s.normalizeCard(&generated); err != nil {
			return false, false, err
		}
		before := card.SampleUsage
		if opts.ForceUpdate {
			generated.Word = card.Word
			generated.NoteID = card.NoteID
			card = generated
		} else {
			fillEmpty(&card, generated)
		}
		content = true
		if card.SampleUsage != before {
			needsAudio = true
		}
	}

	var path string
	if needsAudio {
		var audioErr error
		path, audioErr = s.synthesize(ctx, card)
		if !content && path == "" {
			if audioErr == nil {
				audioErr = errors.New("empty sample usage")
			}
			return false, false, fmt.Errorf("audio for %q: %w", card.Word, audioErr)
		}
	}
	if err := s.store.UpdateFlashcard(ctx, card.NoteID, card, path); err != nil {
		return false, false, err
	}
	s.logger.Info("card fixed", slog.Int64("note_id", card.NoteID), slog.Bool("content", content), slog.Bool("audio", path != ""))
	return content, path != "", nil
}

// fillEmpty copies generated values into the fields of card that are empty.
func fillEmpty(card *flashcard.Flashcard, generated flashcard.Flashcard) {
	set := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	set(&card.Pronunciation, generated.Pronunciation)
	set(&card.English, generated.English)
	set(&card.SampleUsage, generated.SampleUsage)
	set(&card.SampleUsageEnglish, generated.SampleUsageEnglish)
	if len(card.RelatedWords) == 0 {
		card.RelatedWords = generated.RelatedWords
	}
	if card.Frequency == "" {
		card.Frequency = generated.Frequency
	}
}
