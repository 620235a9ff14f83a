package llm

import (
	"fmt"
	"strings"

	"github.com/japaniel/tutor/pkg/flashcard"
)

const flashcardSystem = "You are a Chinese language teacher writing vocabulary flashcards. Always respond in the exact JSON format requested."

func languageTitle(lang flashcard.Language) string {
	s := string(lang.Variant().Language)
	return strings.ToUpper(s[:1]) + s[1:]
}

// flashcardFields describes every key of one flashcard object.
func flashcardFields(lang flashcard.Language, level string) string {
	v := lang.Variant()
	pron := "Pinyin with tone marks, lowercased"
	if v.Language == flashcard.Cantonese {
		pron = "Jyutping with tone numbers, lowercased"
	}
	freqs := make([]string, 0, len(flashcard.Frequencies()))
	for _, f := range flashcard.Frequencies() {
		freqs = append(freqs, fmt.Sprintf("%q", f))
	}
	return fmt.Sprintf(`Each flashcard is a JSON object with exactly these keys:
- "word": the word or phrase verbatim, in %[1]s Chinese characters
- %[2]q: %[3]s
- "english": the word translated into English, lowercased; add disambiguating context in parentheses when useful
- "sample_usage": a new %[4]s sentence that uses the word in context
- "sample_usage_english": the sample usage translated into English
- "related_words": 0 to 3 objects with keys "word", %[2]q, "english" and "relationship" (synonym, antonym, formal variant, casual variant, commonly paired, similar pattern)
- "frequency": one of %[5]s

Keep every field clear and practical for an %[6]s student of %[4]s.`,
		v.Script, v.PronunciationKey, pron, languageTitle(lang), strings.Join(freqs, ", "), level)
}

const flashcardEnvelope = `Respond with a JSON object of the form {"flashcards": [ ... ]}.`

// WordPrompt asks for one flashcard for word.
func WordPrompt(word string, lang flashcard.Language, level string) string {
	return fmt.Sprintf("Generate one flashcard for the word %s.\n\n%s\n\n%s",
		word, flashcardFields(lang, level), flashcardEnvelope)
}

// TextPrompt asks for flashcards for the key vocabulary of a passage.
func TextPrompt(text string, lang flashcard.Language, level string) string {
	return fmt.Sprintf(`Below the line is a paragraph from an article in Chinese. Extract key vocabulary and grammar phrases, except proper nouns.
--
%s
--
For each word or phrase, generate a flashcard.

%s

%s`, text, flashcardFields(lang, level), flashcardEnvelope)
}

const dialogueSystem = "You are a helpful Chinese language tutor. Always respond in the exact JSON format requested."

func formatHistory(history []Turn) string {
	lines := make([]string, 0, len(history))
	for _, t := range history {
		who := "User"
		if t.Role == "tutor" {
			who = "Tutor"
		}
		lines = append(lines, who+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

func dialoguePrompt(scenario, userLine string, history []Turn, level string) string {
	return fmt.Sprintf(`You are helping a student practice Chinese conversation. The scenario is: %s.

Conversation history:
%s

User's response: %s

Continue the dialogue naturally at an %s level with one concise, practical line.
Respond with a JSON object with keys "next_line_zh", "next_line_pinyin" and "next_line_en".`,
		scenario, formatHistory(history), userLine, level)
}

const reviewSystem = "You are a Chinese language tutor focusing on helping students achieve native-like expression. Pay special attention to phrases that sound unnatural or non-native."

func reviewPrompt(scenario string, history []Turn) string {
	return fmt.Sprintf(`Review this Chinese conversation practice. Scenario: %s

Conversation:
%s

Respond with a JSON object with keys:
- "overall_feedback": overall assessment focusing on communication effectiveness
- "grammar_feedback": list of objects with "original", "correction", "explanation", "example"
- "vocabulary_review": list of objects with "word", "pinyin", "meaning", "usage_note"`,
		scenario, formatHistory(history))
}
