// Package tutor implements the flashcard workflows: generate-or-skip,
// regenerate, fix-up, lesser-known review and article extraction.
package tutor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/config"
	"github.com/japaniel/tutor/pkg/db"
	"github.com/japaniel/tutor/pkg/flashcard"
)

// Store is the flashcard store the workflows read from and write to.
type Store interface {
	FindNotes(ctx context.Context, query string, lang flashcard.Language) ([]flashcard.Flashcard, error)
	FindStoredNotes(ctx context.Context, query string) ([]flashcard.StoredNote, error)
	AddFlashcard(ctx context.Context, deck string, card flashcard.Flashcard, audio ...anki.Audio) (int64, error)
	UpdateFlashcard(ctx context.Context, noteID int64, card flashcard.Flashcard, audioPath string) error
	MaybeAddDeck(ctx context.Context, name string) (bool, error)
}

// Generator produces flashcard content.
type Generator interface {
	GenerateFlashcard(ctx context.Context, word string, lang flashcard.Language) (flashcard.Flashcard, error)
	FlashcardsFromText(ctx context.Context, text string, lang flashcard.Language) ([]flashcard.Flashcard, error)
}

// Speaker synthesizes audio and returns the file path.
type Speaker interface {
	Synthesize(ctx context.Context, text string, lang flashcard.Language) (string, error)
}

// Normalizer converts text to a language's script convention.
type Normalizer interface {
	Normalize(text string, lang flashcard.Language) (string, error)
}

// Recorder keeps a log of per-word outcomes.
type Recorder interface {
	Record(g db.Generation) error
}

// Progress checkpoints how far an article has been processed.
type Progress interface {
	// Source returns the id of the article and the index of its last
	// processed chunk, -1 when none.
	Source(url, title, deck string) (int64, int, error)
	Checkpoint(sourceID int64, paragraph int) error
}

// ConfirmFunc decides whether a generated card should be written.
type ConfirmFunc func(card flashcard.Flashcard) bool

// Options are the per-command settings threaded through every workflow.
type Options struct {
	Deck        string
	Language    flashcard.Language
	SkipConfirm bool
}

// Deps are the collaborators of a Service. Speaker, Recorder, Progress and
// Confirm are optional.
type Deps struct {
	Store      Store
	Generator  Generator
	Speaker    Speaker
	Normalizer Normalizer
	Recorder   Recorder
	Progress   Progress
	Confirm    ConfirmFunc
	Logger     *slog.Logger
}

// Service runs the workflows. It processes one word at a time.
type Service struct {
	store    Store
	gen      Generator
	speaker  Speaker
	norm     Normalizer
	recorder Recorder
	progress Progress
	confirm  ConfirmFunc
	logger   *slog.Logger
}

// New creates a Service.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    d.Store,
		gen:      d.Generator,
		speaker:  d.Speaker,
		norm:     d.Normalizer,
		recorder: d.Recorder,
		progress: d.Progress,
		confirm:  d.Confirm,
		logger:   logger,
	}
}

// ErrNotFound is returned when no card matches a word.
var ErrNotFound = errors.New("card not found")

// ErrAmbiguous is returned when more than one card matches a word.
var ErrAmbiguous = errors.New("multiple cards match")

// IsStructural reports whether err should abort a whole command rather than
// a single item: the store is unreachable, a note type or required config key
// is missing, or the run was cancelled.
func IsStructural(err error) bool {
	return anki.IsTransport(err) ||
		anki.IsNoteTypeMissing(err) ||
		errors.Is(err, config.ErrNoDefaultDeck) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *Service) record(res WordResult, opts Options, deck string, sourceID int64) {
	if s.recorder == nil {
		return
	}
	g := db.Generation{
		Word:     res.Word,
		Language: string(opts.Language),
		Deck:     deck,
		Status:   res.Outcome.status(),
		NoteID:   res.NoteID,
		SourceID: sourceID,
	}
	if res.Err != nil {
		g.Detail = res.Err.Error()
	}
	if err := s.recorder.Record(g); err != nil {
		s.logger.Warn("record history", slog.String("word", res.Word), slog.Any("error", err))
	}
}

// normalizeCard applies the script rule to the card word and its related words.
func (s *Service) normalizeCard(card *flashcard.Flashcard) error {
	w, err := s.norm.Normalize(card.Word, card.Language)
	if err != nil {
		return err
	}
	card.Word = w
	for i := range card.RelatedWords {
		rw, err := s.norm.Normalize(card.RelatedWords[i].Word, card.Language)
		if err != nil {
			return err
		}
		card.RelatedWords[i].Word = rw
	}
	return nil
}

// synthesize returns the sample usage audio path, or "" when speech is
// unavailable or fails.
func (s *Service) synthesize(ctx context.Context, card flashcard.Flashcard) (string, error) {
	if s.speaker == nil || card.SampleUsage == "" {
		return "", nil
	}
	path, err := s.speaker.Synthesize(ctx, card.SampleUsage, card.Language)
	if err != nil {
		s.logger.Warn("audio unavailable, continuing without it",
			slog.String("word", card.Word), slog.Any("error", err))
		return "", err
	}
	return path, nil
}
