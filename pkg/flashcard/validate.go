package flashcard

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks model output that does not fit the flashcard schema.
var ErrValidation = errors.New("invalid flashcard")

// ValidationError lists every problem found in one model-produced card.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return Frequency(fl.Field().String()).Valid()
	})
}

type generatedCard struct {
	Word               string             `validate:"required"`
	Pronunciation      string             `validate:"required"`
	English            string             `validate:"required"`
	SampleUsage        string             `validate:"required"`
	SampleUsageEnglish string             `validate:"required"`
	RelatedWords       []generatedRelated `validate:"dive"`
	Frequency          string             `validate:"omitempty,frequency"`
}

type generatedRelated struct {
	Word          string `validate:"required"`
	Pronunciation string `validate:"required"`
	English       string
	Relationship  string
}

// FromGenerated builds a card from one JSON object produced by the language model.
// Unknown keys, missing required keys and unknown frequencies are rejected.
func FromGenerated(lang Language, raw json.RawMessage) (Flashcard, error) {
	v := lang.Variant()
	var problems []string

	fields, err := decodeObject(raw, "word", v.PronunciationKey, "english", "sample_usage",
		"sample_usage_english", "related_words", "frequency")
	if err != nil {
		return Flashcard{}, &ValidationError{Problems: []string{err.Error()}}
	}

	str := func(key string) string {
		var s string
		if b, ok := fields[key]; ok {
			if err := json.Unmarshal(b, &s); err != nil {
				problems = append(problems, fmt.Sprintf("Field: %s, must be a string", key))
			}
		}
		return strings.TrimSpace(s)
	}

	card := generatedCard{
		Word:               str("word"),
		Pronunciation:      str(v.PronunciationKey),
		English:            str("english"),
		SampleUsage:        str("sample_usage"),
		SampleUsageEnglish: str("sample_usage_english"),
		Frequency:          strings.ToLower(str("frequency")),
	}

	if b, ok := fields["related_words"]; ok && string(b) != "null" {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			problems = append(problems, "Field: related_words, must be a list")
		}
		for i, item := range items {
			rf, err := decodeObject(item, "word", v.PronunciationKey, "english", "relationship")
			if err != nil {
				problems = append(problems, fmt.Sprintf("related_words[%d]: %v", i, err))
				continue
			}
			rs := func(key string) string {
				var s string
				if b, ok := rf[key]; ok {
					if err := json.Unmarshal(b, &s); err != nil {
						problems = append(problems, fmt.Sprintf("related_words[%d]: Field: %s, must be a string", i, key))
					}
				}
				return strings.TrimSpace(s)
			}
			card.RelatedWords = append(card.RelatedWords, generatedRelated{
				Word:          rs("word"),
				Pronunciation: rs(v.PronunciationKey),
				English:       rs("english"),
				Relationship:  rs("relationship"),
			})
		}
	}

	if err := validate.Struct(card); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Flashcard{}, err
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("Field: %s, Tag: %s", fe.Namespace(), fe.Tag()))
		}
	}
	if len(problems) > 0 {
		return Flashcard{}, &ValidationError{Problems: problems}
	}

	out := Flashcard{
		Language:           v.Language,
		Word:               card.Word,
		Pronunciation:      card.Pronunciation,
		English:            card.English,
		SampleUsage:        card.SampleUsage,
		SampleUsageEnglish: card.SampleUsageEnglish,
		Frequency:          Frequency(card.Frequency),
	}
	for _, r := range card.RelatedWords {
		out.RelatedWords = append(out.RelatedWords, RelatedWord(r))
	}
	return out, nil
}

// decodeObject unmarshals a JSON object and rejects keys outside allowed.
func decodeObject(raw json.RawMessage, allowed ...string) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}
	if m == nil {
		return nil, errors.New("expected a JSON object, got null")
	}
	ok := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		ok[k] = true
	}
	var unknown []string
	for k := range m {
		if !ok[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unexpected fields: %s", strings.Join(unknown, ", "))
	}
	return m, nil
}
