package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/article"
	"github.com/japaniel/tutor/pkg/chinese"
)

// MinChunkRunes is the smallest text chunk sent for extraction.
const MinChunkRunes = 80

// ArticleOptions controls flashcard extraction from an article.
type ArticleOptions struct {
	Options
	// Subdeck names the deck under Options.Deck that receives the cards.
	// It defaults to the article title.
	Subdeck string
}

// FromArticle extracts flashcards chunk by chunk and adds the ones whose word
// is not yet in the base deck to a subdeck. Progress is checkpointed after
// every chunk so a rerun resumes where the last one stopped.
func (s *Service) FromArticle(ctx context.Context, art article.Article, opts ArticleOptions) (Report, error) {
	var report Report

	leaf := opts.Subdeck
	if leaf == "" {
		leaf = art.Title
	}
	deck := opts.Deck
	if leaf = deckLeaf(leaf); leaf != "" {
		deck = anki.Subdeck(opts.Deck, leaf)
	}
	created, err := s.store.MaybeAddDeck(ctx, deck)
	if err != nil {
		return report, fmt.Errorf("deck %q: %w", deck, err)
	}
	if created {
		s.logger.Info("deck created", slog.String("deck", deck))
	}

	var sourceID int64
	last := -1
	if s.progress != nil && art.URL != "" {
		sourceID, last, err = s.progress.Source(art.URL, art.Title, deck)
		if err != nil {
			return report, err
		}
	}

	chunks := chinese.ChunkParagraphs(chinese.SplitParagraphs(art.Text), MinChunkRunes)
	if last >= 0 && last < len(chunks) {
		s.logger.Info("resuming article", slog.String("url", art.URL), slog.Int("chunk", last+1), slog.Int("chunks", len(chunks)))
	}
	for i := last + 1; i < len(chunks); i++ {
		if ctx.Err() != nil {
			report.Interrupted = true
			return report, nil
		}
		results, err := s.fromChunk(ctx, chunks[i], deck, opts.Options)
		report.Results = append(report.Results, results...)
		for _, res := range results {
			s.logResult(res)
			s.record(res, opts.Options, deck, sourceID)
		}
		if err != nil {
			if ctx.Err() != nil {
				report.Interrupted = true
				return report, nil
			}
			if IsStructural(err) {
				return report, err
			}
			s.logger.Error("chunk failed", slog.Int("chunk", i), slog.Any("error", err))
		}
		if sourceID != 0 {
			if err := s.progress.Checkpoint(sourceID, i); err != nil {
				s.logger.Warn("save article progress", slog.Any("error", err))
			}
		}
	}
	return report, nil
}

func (s *Service) fromChunk(ctx context.Context, text, deck string, opts Options) ([]WordResult, error) {
	cards, err := s.gen.FlashcardsFromText(ctx, text, opts.Language)
	if err != nil {
		return nil, err
	}
	var results []WordResult
	seen := map[string]bool{}
	for _, card := range cards {
		card.Language = opts.Language
		if err := s.normalizeCard(&card); err != nil {
			results = append(results, WordResult{Word: card.Word, Outcome: Failed, Err: err})
			continue
		}
		if card.Word == "" || seen[card.Word] {
			continue
		}
		seen[card.Word] = true

		res := WordResult{Word: card.Word}
		id, found, err := s.existing(ctx, opts.Deck, card.Word, opts.Language)
		if err != nil {
			if IsStructural(err) {
				return results, err
			}
			results = append(results, WordResult{Word: card.Word, Outcome: Failed, Err: err})
			continue
		}
		if found {
			res.Outcome = Exists
			res.NoteID = id
			results = append(results, res)
			continue
		}
		res, err = s.commit(ctx, res, card, deck, opts)
		if err != nil {
			if IsStructural(err) {
				return results, err
			}
			res = WordResult{Word: card.Word, Outcome: Failed, Err: err}
		}
		results = append(results, res)
	}
	return results, nil
}

// deckLeaf strips characters that would nest or break a deck name.
func deckLeaf(title string) string {
	r := strings.NewReplacer("::", " ", `"`, "", "\n", " ")
	return strings.Join(strings.Fields(r.Replace(title)), " ")
}
