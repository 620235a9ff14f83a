package flashcard

import (
	"regexp"
	"strings"
)

// Bullet prefixes each serialized related word line.
const Bullet = "• "

// RelatedWord is a secondary vocabulary item attached to a flashcard.
type RelatedWord struct {
	Word          string
	Pronunciation string
	English       string
	Relationship  string
}

// String renders the word as "word (pronunciation) - english [relationship]".
func (r RelatedWord) String() string {
	return r.Word + " (" + r.Pronunciation + ") - " + r.English + " [" + r.Relationship + "]"
}

// FormatRelatedWords serializes words one per line, bullet prefixed.
func FormatRelatedWords(words []RelatedWord) string {
	lines := make([]string, 0, len(words))
	for _, w := range words {
		lines = append(lines, Bullet+w.String())
	}
	return strings.Join(lines, "\n")
}

// ParseResult holds the recovered related words and the number of lines dropped.
type ParseResult struct {
	Words   []RelatedWord
	Skipped int
}

// Anki's editor stores line breaks as markup.
var reLineBreak = regexp.MustCompile(`(?i)<br\s*/?>|</?div>`)

// ParseRelatedWords recovers related words from a serialized block.
// Lines that do not follow the serialized grammar are counted in Skipped.
func ParseRelatedWords(text string) ParseResult {
	var res ParseResult
	text = reLineBreak.ReplaceAllString(text, "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		w, ok := parseRelatedLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Words = append(res.Words, w)
	}
	return res
}

func parseRelatedLine(line string) (RelatedWord, bool) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "•"))
	line = strings.TrimSpace(strings.TrimPrefix(line, "-"))

	open := strings.Index(line, "(")
	if open < 0 {
		return RelatedWord{}, false
	}
	closing := strings.Index(line[open:], ")")
	if closing < 0 {
		return RelatedWord{}, false
	}
	closing += open

	rest := strings.TrimSpace(line[closing+1:])
	if !strings.HasPrefix(rest, "-") {
		return RelatedWord{}, false
	}
	rest = strings.TrimSpace(rest[1:])

	rb := strings.LastIndex(rest, "]")
	lb := openingBracket(rest, rb)
	if lb < 0 {
		return RelatedWord{}, false
	}

	w := RelatedWord{
		Word:          strings.TrimSpace(line[:open]),
		Pronunciation: strings.TrimSpace(line[open+1 : closing]),
		English:       strings.TrimSpace(rest[:lb]),
		Relationship:  strings.TrimSpace(rest[lb+1 : rb]),
	}
	if w.Word == "" || w.Pronunciation == "" {
		return RelatedWord{}, false
	}
	return w, true
}

// openingBracket returns the index of the "[" that the "]" at end closes, or -1.
func openingBracket(s string, end int) int {
	depth := 0
	for i := end; i >= 0; i-- {
		switch s[i] {
		case ']':
			depth++
		case '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
