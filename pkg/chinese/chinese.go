package chinese

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/japaniel/tutor/pkg/flashcard"
	"github.com/longbridgeapp/opencc"
	"golang.org/x/text/unicode/norm"
)

// Converter converts text between simplified and traditional characters.
type Converter struct {
	s2t *opencc.OpenCC
	t2s *opencc.OpenCC
}

// NewConverter loads the OpenCC conversion dictionaries.
func NewConverter() (*Converter, error) {
	s2t, err := opencc.New("s2t")
	if err != nil {
		return nil, fmt.Errorf("load s2t: %w", err)
	}
	t2s, err := opencc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("load t2s: %w", err)
	}
	return &Converter{s2t: s2t, t2s: t2s}, nil
}

// ToSimplified converts traditional characters to simplified ones.
func (c *Converter) ToSimplified(text string) (string, error) {
	return c.t2s.Convert(text)
}

// ToTraditional converts simplified characters to traditional ones.
func (c *Converter) ToTraditional(text string) (string, error) {
	return c.s2t.Convert(text)
}

// Normalize trims text, applies NFC and converts it to the script of lang.
func (c *Converter) Normalize(text string, lang flashcard.Language) (string, error) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return "", nil
	}
	var (
		out string
		err error
	)
	switch lang.Variant().Script {
	case flashcard.Traditional:
		out, err = c.ToTraditional(text)
	default:
		out, err = c.ToSimplified(text)
	}
	if err != nil {
		return "", fmt.Errorf("normalize %q to %s: %w", text, lang.Variant().Script, err)
	}
	return out, nil
}

// SplitParagraphs breaks text on blank-or-single newlines and drops empty paragraphs.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitSentences splits on Chinese sentence delimiters, keeping the delimiter.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		// 。！？； and newline
		if r == '。' || r == '！' || r == '？' || r == '；' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// ChunkParagraphs merges short paragraphs until each chunk holds at least minRunes.
func ChunkParagraphs(paragraphs []string, minRunes int) []string {
	var out []string
	var current strings.Builder
	for _, p := range paragraphs {
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(p)
		if len([]rune(current.String())) >= minRunes {
			out = append(out, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby annotations (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability would otherwise interleave pinyin or zhuyin with
// the characters they annotate (e.g. "汉字hànzì").
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}
