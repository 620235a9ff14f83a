package tutor

import (
	"context"
	"math/rand/v2"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/flashcard"
)

// LesserKnown returns up to count random cards from the deck that were rated
// "again" or "hard" within the last days.
func (s *Service) LesserKnown(ctx context.Context, opts Options, count, days int) ([]flashcard.Flashcard, error) {
	cards, err := s.store.FindNotes(ctx, anki.LowRatedQuery(opts.Deck, days), opts.Language)
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	if count > 0 && len(cards) > count {
		cards = cards[:count]
	}
	return cards, nil
}
