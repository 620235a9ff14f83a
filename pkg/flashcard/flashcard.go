package flashcard

import "strings"

// Frequency is the relative frequency of a word, from a closed set.
type Frequency string

const (
	VeryCommon Frequency = "very common"
	Common     Frequency = "common"
	Infrequent Frequency = "infrequent"
	Rare       Frequency = "rare"
	VeryRare   Frequency = "very rare"
)

// Frequencies lists the allowed frequency values.
func Frequencies() []Frequency {
	return []Frequency{VeryCommon, Common, Infrequent, Rare, VeryRare}
}

// Valid reports whether f is unset or one of the allowed values.
func (f Frequency) Valid() bool {
	if f == "" {
		return true
	}
	for _, v := range Frequencies() {
		if f == v {
			return true
		}
	}
	return false
}

// Flashcard is a vocabulary card for one language variant.
// NoteID is zero until the card has been persisted.
type Flashcard struct {
	Language           Language
	NoteID             int64
	Word               string
	Pronunciation      string
	English            string
	SampleUsage        string
	SampleUsageEnglish string
	RelatedWords       []RelatedWord
	Frequency          Frequency
}

// Variant returns the card's language capability set.
func (c Flashcard) Variant() Variant { return c.Language.Variant() }

// ModelName is the note type the card is stored under.
func (c Flashcard) ModelName() string { return c.Language.ModelName() }

// attrs returns the internal attribute values keyed by attribute name.
func (c Flashcard) attrs() map[string]string {
	return map[string]string{
		"word":                       c.Word,
		c.Variant().PronunciationKey: c.Pronunciation,
		"english":                    c.English,
		"sample_usage":               c.SampleUsage,
		"sample_usage_english":       c.SampleUsageEnglish,
		"related_words":              FormatRelatedWords(c.RelatedWords),
	}
}

// Fields renders the card into its note field map.
func (c Flashcard) Fields() map[string]string {
	attrs := c.attrs()
	out := make(map[string]string, len(attrs))
	for _, f := range c.Variant().Fields {
		out[f.Field] = attrs[f.Attr]
	}
	return out
}

// StoredNote is a note as read back from the flashcard store.
type StoredNote struct {
	NoteID    int64
	ModelName string
	Fields    map[string]string
}

// FromStoredNote rebuilds a card from a stored note. An empty lang is inferred
// from the note type name. It also returns how many related word lines were unreadable.
func FromStoredNote(note StoredNote, lang Language) (Flashcard, int) {
	if lang == "" {
		lang = InferLanguage(note.ModelName)
	}
	v := lang.Variant()
	get := func(attr string) string {
		name, ok := v.FieldFor(attr)
		if !ok {
			return ""
		}
		return strings.TrimSpace(note.Fields[name])
	}

	card := Flashcard{
		Language:           v.Language,
		NoteID:             note.NoteID,
		Word:               get("word"),
		Pronunciation:      get(v.PronunciationKey),
		English:            get("english"),
		SampleUsage:        get("sample_usage"),
		SampleUsageEnglish: get("sample_usage_english"),
		Frequency:          Frequency(strings.TrimSpace(note.Fields[FrequencyField])),
	}
	if !card.Frequency.Valid() {
		card.Frequency = ""
	}

	var skipped int
	if related := get("related_words"); related != "" {
		res := ParseRelatedWords(related)
		card.RelatedWords = res.Words
		skipped = res.Skipped
	}
	return card, skipped
}

// MissingContent lists the content fields that are empty on a stored note.
func MissingContent(note StoredNote, lang Language) []string {
	var missing []string
	for _, name := range lang.Variant().ContentFields() {
		if strings.TrimSpace(note.Fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
