package tutor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/anki/ankitest"
	"github.com/japaniel/tutor/pkg/article"
	"github.com/japaniel/tutor/pkg/chinese"
	"github.com/japaniel/tutor/pkg/db"
	"github.com/japaniel/tutor/pkg/flashcard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeck = "Chinese::Test"

type fakeGenerator struct {
	calls     []string
	texts     []string
	fail      map[string]error
	fromText  [][]flashcard.Flashcard
	overrides map[string]flashcard.Flashcard
}

func (g *fakeGenerator) GenerateFlashcard(_ context.Context, word string, lang flashcard.Language) (flashcard.Flashcard, error) {
	g.calls = append(g.calls, word)
	if err := g.fail[word]; err != nil {
		return flashcard.Flashcard{}, err
	}
	if c, ok := g.overrides[word]; ok {
		return c, nil
	}
	return cardFor(word, lang), nil
}

func (g *fakeGenerator) FlashcardsFromText(_ context.Context, text string, _ flashcard.Language) ([]flashcard.Flashcard, error) {
	g.texts = append(g.texts, text)
	if len(g.fromText) == 0 {
		return nil, nil
	}
	out := g.fromText[0]
	g.fromText = g.fromText[1:]
	return out, nil
}

func cardFor(word string, lang flashcard.Language) flashcard.Flashcard {
	return flashcard.Flashcard{
		Language:           lang,
		Word:               word,
		Pronunciation:      "pron " + word,
		English:            "meaning of " + word,
		SampleUsage:        word + "很好。",
		SampleUsageEnglish: "It is good.",
		RelatedWords: []flashcard.RelatedWord{
			{Word: "您好", Pronunciation: "nín hǎo", English: "hello (polite)", Relationship: "synonym"},
		},
		Frequency: flashcard.Frequency("very common"),
	}
}

type fakeSpeaker struct {
	texts []string
	err   error
}

func (s *fakeSpeaker) Synthesize(_ context.Context, text string, _ flashcard.Language) (string, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return "", s.err
	}
	return "/tmp/chinese-tutor-" + text + ".mp3", nil
}

type memRecorder struct{ gens []db.Generation }

func (r *memRecorder) Record(g db.Generation) error {
	r.gens = append(r.gens, g)
	return nil
}

type fixture struct {
	srv     *ankitest.Server
	gen     *fakeGenerator
	speaker *fakeSpeaker
	rec     *memRecorder
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := ankitest.NewServer()
	t.Cleanup(srv.Close)
	for _, lang := range flashcard.Languages() {
		srv.AddModel(lang.ModelName(), lang.Variant().RequiredFields()...)
	}
	srv.AddDeck(testDeck)

	conv, err := chinese.NewConverter()
	require.NoError(t, err)

	f := &fixture{
		srv:     srv,
		gen:     &fakeGenerator{fail: map[string]error{}, overrides: map[string]flashcard.Flashcard{}},
		speaker: &fakeSpeaker{},
		rec:     &memRecorder{},
	}
	f.svc = New(Deps{
		Store:      anki.NewClient(srv.URL),
		Generator:  f.gen,
		Speaker:    f.speaker,
		Normalizer: conv,
		Recorder:   f.rec,
	})
	return f
}

func mandarin() Options {
	return Options{Deck: testDeck, Language: flashcard.Mandarin, SkipConfirm: true}
}

func TestGenerateForWordsAddsOnceThenSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.svc.GenerateForWords(ctx, []string{"你好"}, mandarin())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, Added, report.Results[0].Outcome)
	assert.Equal(t, 1, report.Added())

	notes := f.srv.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, testDeck, notes[0].Deck)
	assert.Equal(t, "chinese-tutor-mandarin", notes[0].Model)
	assert.Equal(t, "你好", notes[0].Fields[flashcard.WordField])
	require.Len(t, notes[0].Audio, 1)
	assert.Equal(t, []any{flashcard.AudioField}, notes[0].Audio[0]["fields"])

	report, err = f.svc.GenerateForWords(ctx, []string{"你好"}, mandarin())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, Exists, report.Results[0].Outcome)
	assert.Equal(t, notes[0].ID, report.Results[0].NoteID)
	assert.Len(t, f.srv.Notes(), 1)
	assert.Equal(t, []string{"你好"}, f.gen.calls, "existing words are not sent to the model")

	require.Len(t, f.rec.gens, 2)
	assert.Equal(t, db.StatusAdded, f.rec.gens[0].Status)
	assert.Equal(t, db.StatusExists, f.rec.gens[1].Status)
}

func TestGenerateForWordsNormalizesScript(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.svc.GenerateForWords(ctx, []string{"學習"}, mandarin())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "学习", report.Results[0].Word)
	assert.Equal(t, []string{"学习"}, f.gen.calls)

	opts := mandarin()
	opts.Language = flashcard.Cantonese
	f.srv.Reset()
	report, err = f.svc.GenerateForWords(ctx, []string{"学习"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "學習", report.Results[0].Word)
	assert.Equal(t, Added, report.Results[0].Outcome)

	var queries []string
	for _, r := range f.srv.Requests() {
		if r.Action == "findNotes" {
			queries = append(queries, r.Params["query"].(string))
		}
	}
	require.NotEmpty(t, queries)
	assert.Contains(t, queries[0], `"Chinese:學習"`)
	assert.NotContains(t, queries[0], "学习")

	var stored []string
	for _, n := range f.srv.Notes() {
		if n.Model == flashcard.Cantonese.ModelName() {
			stored = append(stored, n.Fields[flashcard.WordField])
		}
	}
	assert.Equal(t, []string{"學習"}, stored)
}

func TestGenerateForWordsSameWordPerLanguage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.svc.GenerateForWords(ctx, []string{"你好"}, mandarin())
	require.NoError(t, err)
	assert.Equal(t, Added, report.Results[0].Outcome)

	opts := mandarin()
	opts.Language = flashcard.Cantonese
	report, err = f.svc.GenerateForWords(ctx, []string{"你好"}, opts)
	require.NoError(t, err)
	assert.Equal(t, Added, report.Results[0].Outcome)

	report, err = f.svc.GenerateForWords(ctx, []string{"你好"}, opts)
	require.NoError(t, err)
	assert.Equal(t, Exists, report.Results[0].Outcome)

	notes := f.srv.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, flashcard.Mandarin.ModelName(), notes[0].Model)
	assert.Equal(t, flashcard.Cantonese.ModelName(), notes[1].Model)
}

func TestGenerateForWordsItemFailureContinues(t *testing.T) {
	f := newFixture(t)
	f.gen.fail["坏"] = fmt.Errorf("model output: %w", flashcard.ErrValidation)

	report, err := f.svc.GenerateForWords(context.Background(), []string{"坏", "好", " "}, mandarin())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, Failed, report.Results[0].Outcome)
	assert.ErrorIs(t, report.Results[0].Err, flashcard.ErrValidation)
	assert.Equal(t, Added, report.Results[1].Outcome)
	assert.Equal(t, 1, report.Added())
}

func TestGenerateForWordsMissingNoteTypeIsStructural(t *testing.T) {
	srv := ankitest.NewServer()
	defer srv.Close()
	srv.AddDeck(testDeck)
	conv, err := chinese.NewConverter()
	require.NoError(t, err)
	svc := New(Deps{Store: anki.NewClient(srv.URL), Generator: &fakeGenerator{}, Normalizer: conv})

	report, err := svc.GenerateForWords(context.Background(), []string{"你好", "谢谢"}, mandarin())
	require.Error(t, err)
	assert.True(t, anki.IsNoteTypeMissing(err))
	assert.True(t, IsStructural(err))
	assert.Empty(t, report.Results)
	assert.Empty(t, srv.Notes())
}

func TestGenerateForWordsUnreachableStore(t *testing.T) {
	srv := ankitest.NewServer()
	url := srv.URL
	srv.Close()
	conv, err := chinese.NewConverter()
	require.NoError(t, err)
	svc := New(Deps{Store: anki.NewClient(url), Generator: &fakeGenerator{}, Normalizer: conv})

	_, err = svc.GenerateForWords(context.Background(), []string{"你好"}, mandarin())
	require.Error(t, err)
	assert.True(t, anki.IsTransport(err))
}

func TestGenerateForWordsDeclined(t *testing.T) {
	f := newFixture(t)
	f.svc.confirm = func(card flashcard.Flashcard) bool { return card.Word != "不" }
	opts := mandarin()
	opts.SkipConfirm = false

	report, err := f.svc.GenerateForWords(context.Background(), []string{"不", "要"}, opts)
	require.NoError(t, err)
	assert.Equal(t, Declined, report.Results[0].Outcome)
	assert.Equal(t, Added, report.Results[1].Outcome)
	assert.Len(t, f.srv.Notes(), 1)
	assert.Equal(t, []string{"要很好。"}, f.speaker.texts, "declined cards get no audio")
}

func TestGenerateForWordsAudioFailureStillAdds(t *testing.T) {
	f := newFixture(t)
	f.speaker.err = errors.New("speech service down")

	report, err := f.svc.GenerateForWords(context.Background(), []string{"你好"}, mandarin())
	require.NoError(t, err)
	res := report.Results[0]
	assert.Equal(t, Added, res.Outcome)
	assert.Error(t, res.AudioErr)
	notes := f.srv.Notes()
	require.Len(t, notes, 1)
	assert.Empty(t, notes[0].Audio)
}

func TestGenerateForWordsCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.svc.confirm = func(flashcard.Flashcard) bool {
		cancel()
		return true
	}
	opts := mandarin()
	opts.SkipConfirm = false

	report, err := f.svc.GenerateForWords(ctx, []string{"一", "二", "三"}, opts)
	require.NoError(t, err)
	assert.True(t, report.Interrupted)
	assert.Len(t, f.gen.calls, 1)
}

func TestRegenerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.GenerateForWords(ctx, []string{"你好"}, mandarin())
	require.NoError(t, err)
	id := f.srv.Notes()[0].ID

	updated := cardFor("你好", flashcard.Mandarin)
	updated.English = "hi"
	updated.SampleUsage = "你好吗？"
	f.gen.overrides["你好"] = updated
	f.srv.Reset()

	res, err := f.svc.Regenerate(ctx, "你好", mandarin())
	require.NoError(t, err)
	assert.Equal(t, Updated, res.Outcome)
	assert.Equal(t, id, res.NoteID)

	note, ok := f.srv.Note(id)
	require.True(t, ok)
	assert.Equal(t, "hi", note.Fields["English"])
	assert.Equal(t, "你好吗？", note.Fields["Sample Usage"])
	assert.Equal(t, []string{"findNotes", "notesInfo", "updateNoteFields", "updateNoteFields"}, f.srv.Actions())
	assert.Len(t, f.srv.Notes(), 1)
}

func TestRegenerateNotFoundAndAmbiguous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Regenerate(ctx, "没有", mandarin())
	assert.ErrorIs(t, err, ErrNotFound)

	for range 2 {
		f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: "chinese-tutor-mandarin", Fields: map[string]string{flashcard.WordField: "重复"}})
	}
	_, err = f.svc.Regenerate(ctx, "重复", mandarin())
	assert.ErrorIs(t, err, ErrAmbiguous)
	assert.Empty(t, f.gen.calls)
}

func TestFixCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	model := flashcard.Mandarin.ModelName()

	complete := cardFor("完整", flashcard.Mandarin).Fields()
	complete[flashcard.AudioField] = "[sound:x.mp3]"
	completeID := f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: model, Fields: complete})

	noAudio := cardFor("没声", flashcard.Mandarin).Fields()
	noAudioID := f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: model, Fields: noAudio})

	partial := map[string]string{flashcard.WordField: "缺少", "English": "kept", flashcard.AudioField: "[sound:y.mp3]"}
	partialID := f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: model, Fields: partial})

	stats, err := f.svc.FixCards(ctx, FixOptions{Options: mandarin()})
	require.NoError(t, err)
	assert.Equal(t, FixStats{Total: 3, Updated: 1, AudioUpdated: 2, Skipped: 1}, stats)
	assert.Equal(t, []string{"缺少"}, f.gen.calls)

	note, _ := f.srv.Note(partialID)
	assert.Equal(t, "kept", note.Fields["English"], "existing content is not overwritten")
	assert.Equal(t, "pron 缺少", note.Fields["Pinyin"])
	assert.Len(t, note.Audio, 1, "new sample usage gets new audio")

	note, _ = f.srv.Note(noAudioID)
	assert.Len(t, note.Audio, 1)

	note, _ = f.srv.Note(completeID)
	assert.Empty(t, note.Audio)
}

func TestFixCardsDryRunAndLimit(t *testing.T) {
	f := newFixture(t)
	model := flashcard.Mandarin.ModelName()
	complete := cardFor("完整", flashcard.Mandarin).Fields()
	complete[flashcard.AudioField] = "[sound:x.mp3]"
	f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: model, Fields: complete})
	for _, w := range []string{"一", "二", "三"} {
		f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: model, Fields: map[string]string{flashcard.WordField: w}})
	}

	stats, err := f.svc.FixCards(context.Background(), FixOptions{Options: mandarin(), DryRun: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, FixStats{Total: 4, Updated: 2, AudioUpdated: 2, Skipped: 1, Deferred: 1}, stats)
	assert.Empty(t, f.gen.calls)
	assert.NotContains(t, f.srv.Actions(), "updateNoteFields")
}

func TestFixCardsAudioFailureCountsAsFailed(t *testing.T) {
	f := newFixture(t)
	f.speaker.err = errors.New("speech service down")
	id := f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: flashcard.Mandarin.ModelName(), Fields: cardFor("没声", flashcard.Mandarin).Fields()})

	stats, err := f.svc.FixCards(context.Background(), FixOptions{Options: mandarin()})
	require.NoError(t, err)
	assert.Equal(t, FixStats{Total: 1, Failed: 1}, stats)
	assert.Equal(t, []string{cardFor("没声", flashcard.Mandarin).SampleUsage}, f.speaker.texts)
	assert.Empty(t, f.gen.calls)
	assert.NotContains(t, f.srv.Actions(), "updateNoteFields")

	note, _ := f.srv.Note(id)
	assert.Empty(t, note.Audio)
}

func TestFixCardsWithoutSpeakerSkipsAudio(t *testing.T) {
	f := newFixture(t)
	f.svc.speaker = nil
	f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: flashcard.Mandarin.ModelName(), Fields: cardFor("没声", flashcard.Mandarin).Fields()})

	stats, err := f.svc.FixCards(context.Background(), FixOptions{Options: mandarin()})
	require.NoError(t, err)
	assert.Equal(t, FixStats{Total: 1, Skipped: 1}, stats)
}

func TestFixCardsForceAndItemFailure(t *testing.T) {
	f := newFixture(t)
	model := flashcard.Mandarin.ModelName()
	good := cardFor("好", flashcard.Mandarin).Fields()
	good[flashcard.AudioField] = "[sound:z.mp3]"
	goodID := f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: model, Fields: good})
	bad := cardFor("坏", flashcard.Mandarin).Fields()
	f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: model, Fields: bad})

	replacement := cardFor("好", flashcard.Mandarin)
	replacement.English = "good (forced)"
	f.gen.overrides["好"] = replacement
	f.gen.fail["坏"] = errors.New("model unavailable")

	stats, err := f.svc.FixCards(context.Background(), FixOptions{Options: mandarin(), ForceUpdate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.AudioUpdated)
	assert.Equal(t, 1, stats.Failed)

	note, _ := f.srv.Note(goodID)
	assert.Equal(t, "good (forced)", note.Fields["English"])
}

func TestLesserKnown(t *testing.T) {
	f := newFixture(t)
	model := flashcard.Mandarin.ModelName()
	for i, w := range []string{"一", "二", "三", "四"} {
		f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: model, Rated: i%2 == 0, Fields: map[string]string{flashcard.WordField: w}})
	}

	cards, err := f.svc.LesserKnown(context.Background(), mandarin(), 5, 14)
	require.NoError(t, err)
	var words []string
	for _, c := range cards {
		words = append(words, c.Word)
	}
	assert.ElementsMatch(t, []string{"一", "三"}, words)

	cards, err = f.svc.LesserKnown(context.Background(), mandarin(), 1, 14)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

type memProgress struct {
	last        int
	checkpoints []int
}

func (p *memProgress) Source(string, string, string) (int64, int, error) { return 7, p.last, nil }

func (p *memProgress) Checkpoint(_ int64, paragraph int) error {
	p.checkpoints = append(p.checkpoints, paragraph)
	p.last = paragraph
	return nil
}

func TestFromArticle(t *testing.T) {
	f := newFixture(t)
	progress := &memProgress{last: -1}
	f.svc.progress = progress

	f.srv.AddNote(ankitest.Note{Deck: testDeck, Model: flashcard.Mandarin.ModelName(), Fields: map[string]string{flashcard.WordField: "旧"}})
	f.gen.fromText = [][]flashcard.Flashcard{
		{cardFor("新闻", flashcard.Mandarin), cardFor("旧", flashcard.Mandarin), cardFor("新闻", flashcard.Mandarin)},
		{cardFor("天气", flashcard.Mandarin)},
	}

	long := func(s string) string {
		out := ""
		for len([]rune(out)) < MinChunkRunes {
			out += s
		}
		return out
	}
	art := article.Article{URL: "https://example.com/a", Title: "Today's \"News\"", Text: long("第一段。") + "\n\n" + long("第二段。")}

	report, err := f.svc.FromArticle(context.Background(), art, ArticleOptions{Options: mandarin()})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added())
	assert.Equal(t, 1, report.Count(Exists))
	assert.Equal(t, []int{0, 1}, progress.checkpoints)

	sub := testDeck + "::Today's News"
	assert.Contains(t, f.srv.Decks(), sub)
	for _, n := range f.srv.Notes()[1:] {
		assert.Equal(t, sub, n.Deck)
	}
	for _, g := range f.rec.gens {
		assert.Equal(t, int64(7), g.SourceID)
	}

	f.gen.texts = nil
	report, err = f.svc.FromArticle(context.Background(), art, ArticleOptions{Options: mandarin()})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, f.gen.texts, "processed chunks are not sent again")
}

func TestIsStructural(t *testing.T) {
	assert.True(t, IsStructural(&anki.TransportError{Action: "findNotes", Err: errors.New("refused")}))
	assert.True(t, IsStructural(fmt.Errorf("add: %w", &anki.NoteTypeMissingError{ModelName: "x"})))
	assert.True(t, IsStructural(context.Canceled))
	assert.False(t, IsStructural(&anki.ProtocolError{Action: "addNote", Message: "duplicate"}))
	assert.False(t, IsStructural(flashcard.ErrValidation))
}
