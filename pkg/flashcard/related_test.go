package flashcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelatedWordString(t *testing.T) {
	w := RelatedWord{Word: "朋友", Pronunciation: "péng you", English: "friend", Relationship: "commonly paired"}
	assert.Equal(t, "朋友 (péng you) - friend [commonly paired]", w.String())
}

func TestRelatedWordsRoundTrip(t *testing.T) {
	cases := map[string][]RelatedWord{
		"empty": nil,
		"one": {
			{Word: "您好", Pronunciation: "nín hǎo", English: "hello (polite)", Relationship: "formal variant"},
		},
		"several": {
			{Word: "再见", Pronunciation: "zài jiàn", English: "goodbye", Relationship: "antonym"},
			{Word: "嗨", Pronunciation: "hāi", English: "hi (casual, loanword)", Relationship: "casual variant"},
			{Word: "早上好", Pronunciation: "zǎo shang hǎo", English: "good morning", Relationship: "similar pattern"},
		},
		"brackets": {
			{Word: "看病", Pronunciation: "kàn bìng", English: "to see [a doctor]", Relationship: "formal [written]"},
		},
	}
	for name, words := range cases {
		t.Run(name, func(t *testing.T) {
			res := ParseRelatedWords(FormatRelatedWords(words))
			assert.Equal(t, 0, res.Skipped)
			assert.Equal(t, words, res.Words)
		})
	}
}

func TestParseRelatedWordsSkipsMalformed(t *testing.T) {
	text := "• 再见 (zài jiàn) - goodbye [antonym]\n" +
		"no delimiters at all\n" +
		"- 嗨 (hāi) - hi [casual]\n" +
		"   \n" +
		"missing (dash) hi [casual]\n" +
		"missing (relationship) - hi"

	res := ParseRelatedWords(text)
	require.Len(t, res.Words, 2)
	assert.Equal(t, 3, res.Skipped)
	assert.Equal(t, "再见", res.Words[0].Word)
	assert.Equal(t, "hāi", res.Words[1].Pronunciation)
}

func TestParseRelatedWordsHTMLBreaks(t *testing.T) {
	text := "• 再见 (zài jiàn) - goodbye [antonym]<br>• 嗨 (hāi) - hi [casual]<div>• 拜拜 (bái bái) - bye-bye [casual]</div>"
	res := ParseRelatedWords(text)
	require.Len(t, res.Words, 3)
	assert.Equal(t, "bye-bye", res.Words[2].English)
}
