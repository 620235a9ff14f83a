package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/japaniel/tutor/pkg/flashcard"
)

// DefaultLevel is the learner level used when none is configured.
const DefaultLevel = "intermediate"

// Generator produces flashcards and tutoring replies from a Completer.
type Generator struct {
	completer Completer
	level     string
	logger    *slog.Logger
}

// NewGenerator creates a Generator for learners at level.
func NewGenerator(c Completer, level string, logger *slog.Logger) *Generator {
	if level == "" {
		level = DefaultLevel
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{completer: c, level: level, logger: logger}
}

type flashcardEnvelopeJSON struct {
	Flashcards []json.RawMessage `json:"flashcards"`
}

func (g *Generator) flashcards(ctx context.Context, prompt string, lang flashcard.Language) ([]flashcard.Flashcard, error) {
	out, err := g.completer.Complete(ctx, Request{System: flashcardSystem, Prompt: prompt, JSON: true})
	if err != nil {
		return nil, fmt.Errorf("generate flashcards: %w", err)
	}
	g.logger.Debug("model output", slog.String("json", out))

	var env flashcardEnvelopeJSON
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	cards := make([]flashcard.Flashcard, 0, len(env.Flashcards))
	for _, raw := range env.Flashcards {
		card, err := flashcard.FromGenerated(lang, raw)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// GenerateFlashcard asks the model for a card for word.
func (g *Generator) GenerateFlashcard(ctx context.Context, word string, lang flashcard.Language) (flashcard.Flashcard, error) {
	cards, err := g.flashcards(ctx, WordPrompt(word, lang, g.level), lang)
	if err != nil {
		return flashcard.Flashcard{}, err
	}
	if len(cards) == 0 {
		return flashcard.Flashcard{}, ErrNoFlashcard
	}
	return cards[0], nil
}

// FlashcardsFromText asks the model for cards covering the vocabulary of text.
func (g *Generator) FlashcardsFromText(ctx context.Context, text string, lang flashcard.Language) ([]flashcard.Flashcard, error) {
	return g.flashcards(ctx, TextPrompt(text, lang, g.level), lang)
}

// Turn is one line of a practice dialogue.
type Turn struct {
	Role    string `json:"role"` // "tutor" or "user"
	Content string `json:"content"`
}

// DialogueLine is the tutor's next line.
type DialogueLine struct {
	Chinese string `json:"next_line_zh"`
	Pinyin  string `json:"next_line_pinyin"`
	English string `json:"next_line_en"`
}

// FallbackLine is returned when the model cannot continue the dialogue.
var FallbackLine = DialogueLine{
	Chinese: "好的，让我们继续",
	Pinyin:  "hǎo de, ràng wǒ men jì xù",
	English: "Okay, let's continue",
}

// NextLine continues a practice dialogue.
func (g *Generator) NextLine(ctx context.Context, scenario, userLine string, history []Turn) (DialogueLine, error) {
	out, err := g.completer.Complete(ctx, Request{
		System: dialogueSystem,
		Prompt: dialoguePrompt(scenario, userLine, history, g.level),
		JSON:   true,
	})
	if err != nil {
		return DialogueLine{}, fmt.Errorf("dialogue: %w", err)
	}
	var line DialogueLine
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		return DialogueLine{}, fmt.Errorf("decode dialogue line: %w", err)
	}
	if line.Chinese == "" {
		return DialogueLine{}, fmt.Errorf("dialogue: empty line")
	}
	return line, nil
}

// GrammarFeedback is a correction of one phrase.
type GrammarFeedback struct {
	Original    string `json:"original"`
	Correction  string `json:"correction"`
	Explanation string `json:"explanation"`
	Example     string `json:"example"`
}

// VocabItem is a word worth reviewing from the conversation.
type VocabItem struct {
	Word      string `json:"word"`
	Pinyin    string `json:"pinyin"`
	Meaning   string `json:"meaning"`
	UsageNote string `json:"usage_note"`
}

// Review is feedback on a whole conversation.
type Review struct {
	OverallFeedback  string            `json:"overall_feedback"`
	GrammarFeedback  []GrammarFeedback `json:"grammar_feedback"`
	VocabularyReview []VocabItem       `json:"vocabulary_review"`
}

// ReviewConversation asks the model to review a finished dialogue.
func (g *Generator) ReviewConversation(ctx context.Context, scenario string, history []Turn) (Review, error) {
	out, err := g.completer.Complete(ctx, Request{System: reviewSystem, Prompt: reviewPrompt(scenario, history), JSON: true})
	if err != nil {
		return Review{}, fmt.Errorf("review: %w", err)
	}
	var r Review
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		return Review{}, fmt.Errorf("decode review: %w", err)
	}
	return r, nil
}
