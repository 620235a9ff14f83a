package flashcard

import (
	"fmt"
	"strings"
)

// Language identifies a supported target language variant.
type Language string

const (
	Mandarin  Language = "mandarin"
	Cantonese Language = "cantonese"
)

// DefaultLanguage is used when a variant cannot be inferred.
const DefaultLanguage = Mandarin

// NoteTypePrefix is prepended to the language key to name its note type.
const NoteTypePrefix = "chinese-tutor"

// Fixed external field names shared by all variants.
const (
	WordField         = "Chinese"
	AudioField        = "Sample Usage (Audio)"
	RelatedWordsField = "Related Words"
	FrequencyField    = "Frequency"
)

// Script is the character convention a variant normalizes words to.
type Script int

const (
	Simplified Script = iota
	Traditional
)

func (s Script) String() string {
	if s == Traditional {
		return "traditional"
	}
	return "simplified"
}

// FieldName maps an internal attribute to its external note field.
type FieldName struct {
	Attr  string
	Field string
}

// Variant is the capability set of a language variant.
type Variant struct {
	Language Language
	// PronunciationKey is the attribute name used in model output ("pinyin", "jyutping").
	PronunciationKey string
	// PronunciationLabel is the external field holding the pronunciation.
	PronunciationLabel string
	Script             Script
	// Voice is the speech voice used for sample usage audio.
	Voice string
	// Fields is the ordered attribute to note field mapping.
	Fields []FieldName
}

// Languages lists every supported variant in a stable order.
func Languages() []Language { return []Language{Mandarin, Cantonese} }

// ParseLanguage resolves a user-supplied language key.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case Mandarin:
		return Mandarin, nil
	case Cantonese:
		return Cantonese, nil
	}
	return "", fmt.Errorf("unsupported language %q (want mandarin or cantonese)", s)
}

// InferLanguage picks the variant named in a note type, defaulting to Mandarin.
func InferLanguage(modelName string) Language {
	name := strings.ToLower(modelName)
	switch {
	case strings.Contains(name, string(Cantonese)):
		return Cantonese
	case strings.Contains(name, string(Mandarin)):
		return Mandarin
	}
	return DefaultLanguage
}

// Variant returns the capability set for l. Unknown keys fall back to the default variant.
func (l Language) Variant() Variant {
	switch l {
	case Cantonese:
		return newVariant(Cantonese, "jyutping", "Jyutping", Traditional, "zh-HK-HiuGaaiNeural")
	default:
		return newVariant(Mandarin, "pinyin", "Pinyin", Simplified, "zh-CN-XiaoxiaoNeural")
	}
}

// ModelName is the note type name for l.
func (l Language) ModelName() string {
	return NoteTypePrefix + "-" + string(l.Variant().Language)
}

func newVariant(lang Language, pronKey, pronLabel string, script Script, voice string) Variant {
	return Variant{
		Language:           lang,
		PronunciationKey:   pronKey,
		PronunciationLabel: pronLabel,
		Script:             script,
		Voice:              voice,
		Fields: []FieldName{
			{Attr: "word", Field: WordField},
			{Attr: pronKey, Field: pronLabel},
			{Attr: "english", Field: "English"},
			{Attr: "sample_usage", Field: "Sample Usage"},
			{Attr: "sample_usage_english", Field: "Sample Usage (English)"},
			{Attr: "related_words", Field: RelatedWordsField},
		},
	}
}

// FieldFor returns the external field for an internal attribute.
func (v Variant) FieldFor(attr string) (string, bool) {
	for _, f := range v.Fields {
		if f.Attr == attr {
			return f.Field, true
		}
	}
	return "", false
}

// RequiredFields is the ordered, de-duplicated field list a note type must declare.
func (v Variant) RequiredFields() []string {
	seen := make(map[string]bool, len(v.Fields)+2)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, f := range v.Fields {
		add(f.Field)
	}
	add(AudioField)
	add(RelatedWordsField)
	return out
}

// ContentFields are the fields whose emptiness marks a note as incomplete.
func (v Variant) ContentFields() []string {
	var out []string
	for _, f := range v.Fields {
		if f.Attr == "related_words" {
			continue
		}
		out = append(out, f.Field)
	}
	return out
}
