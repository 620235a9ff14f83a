package notetype

import (
	"embed"
	"fmt"
	"strings"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/flashcard"
)

//go:embed assets
var assets embed.FS

// Template names created for every note type.
const (
	ChineseFrontTemplate = "Chinese front"
	EnglishFrontTemplate = "English front"
)

// CSS returns the stylesheet for lang.
func CSS(lang flashcard.Language) (string, error) {
	files := []string{"common.css", "english_front.css", string(lang.Variant().Language) + ".css"}
	parts := make([]string, 0, len(files))
	for _, f := range files {
		b, err := assets.ReadFile("assets/css/" + f)
		if err != nil {
			return "", fmt.Errorf("read stylesheet %s: %w", f, err)
		}
		parts = append(parts, strings.TrimSpace(string(b)))
	}
	return strings.Join(parts, "\n\n"), nil
}

// Templates returns the Chinese-fronted and English-fronted card templates for lang.
func Templates(lang flashcard.Language) ([]anki.Template, error) {
	v := lang.Variant()
	r := strings.NewReplacer(
		"__LANGUAGE__", string(v.Language),
		"__LANGUAGE_TITLE__", strings.ToUpper(string(v.Language[:1]))+string(v.Language[1:]),
		"__PRONUNCIATION__", v.PronunciationLabel,
	)
	read := func(name string) (string, error) {
		b, err := assets.ReadFile("assets/templates/" + name + ".html")
		if err != nil {
			return "", fmt.Errorf("read template %s: %w", name, err)
		}
		return r.Replace(string(b)), nil
	}

	var out []anki.Template
	for _, t := range []struct{ name, file string }{
		{ChineseFrontTemplate, "chinese_front"},
		{EnglishFrontTemplate, "english_front"},
	} {
		front, err := read(t.file + "_front")
		if err != nil {
			return nil, err
		}
		back, err := read(t.file + "_back")
		if err != nil {
			return nil, err
		}
		out = append(out, anki.Template{Name: t.name, Front: front, Back: back})
	}
	return out, nil
}
