package chinese

import (
	"testing"

	"github.com/japaniel/tutor/pkg/flashcard"
)

func newConverter(t *testing.T) *Converter {
	t.Helper()
	c, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	return c
}

func TestNormalizeMandarinToSimplified(t *testing.T) {
	c := newConverter(t)
	got, err := c.Normalize(" 學習 ", flashcard.Mandarin)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "学习" {
		t.Fatalf("expected 学习, got %q", got)
	}
}

func TestNormalizeCantoneseToTraditional(t *testing.T) {
	c := newConverter(t)
	got, err := c.Normalize("学习", flashcard.Cantonese)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "學習" {
		t.Fatalf("expected 學習, got %q", got)
	}
}

func TestNormalizeKeepsTargetScript(t *testing.T) {
	c := newConverter(t)
	got, err := c.Normalize("你好", flashcard.Mandarin)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "你好" {
		t.Fatalf("expected 你好 unchanged, got %q", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("你好。你叫什么名字？我叫小明！好；")
	want := []string{"你好。", "你叫什么名字？", "我叫小明！", "好；"}
	if len(got) != len(want) {
		t.Fatalf("expected %d sentences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("第一段。\r\n\r\n  第二段。 \n\n")
	if len(got) != 2 || got[0] != "第一段。" || got[1] != "第二段。" {
		t.Fatalf("unexpected paragraphs: %q", got)
	}
}

func TestChunkParagraphs(t *testing.T) {
	got := ChunkParagraphs([]string{"短。", "也短。", "这一段比较长一点。"}, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if got[0] != "短。\n也短。" {
		t.Errorf("unexpected first chunk %q", got[0])
	}
}

func TestSanitizeRuby(t *testing.T) {
	in := []byte(`<p><ruby>汉<rp>(</rp><rt>hàn</rt><rp>)</rp>字<rt>zì</rt></ruby></p>`)
	got := string(SanitizeRuby(in))
	want := `<p><ruby>汉字</ruby></p>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
