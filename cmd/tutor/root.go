package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/app"
	"github.com/japaniel/tutor/pkg/chinese"
	"github.com/japaniel/tutor/pkg/config"
	"github.com/japaniel/tutor/pkg/db"
	"github.com/japaniel/tutor/pkg/flashcard"
	"github.com/japaniel/tutor/pkg/llm"
	"github.com/japaniel/tutor/pkg/tts"
	"github.com/japaniel/tutor/pkg/tutor"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	model       string
	provider    string
	debug       bool
	skipConfirm bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "tutor",
		Short:         "Generate Chinese flashcards with a language model and add them to Anki",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.model, "model", "", "language model to use (overrides llm.model)")
	pf.StringVar(&g.provider, "provider", "", "language model provider: anthropic or ollama (overrides llm.provider)")
	pf.BoolVar(&g.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&g.skipConfirm, "skip-confirm", false, "add cards without asking for confirmation")

	root.AddCommand(
		newGenerateCmd(g),
		newRegenerateCmd(g),
		newFixCardsCmd(g),
		newSetupAnkiCmd(g),
		newUpdateStylingCmd(g),
		newLesserKnownCmd(g),
		newArticleCmd(g),
		newConfigCmd(g),
		newHistoryCmd(g),
		newWebCmd(g),
		newTopicsPromptCmd(g),
		newSelectTopicCmd(g),
	)
	return root
}

// env is everything a command needs after the config has been loaded.
type env struct {
	path   string
	cfg    *config.Config
	logger *slog.Logger
	anki   *anki.Client
	out    io.Writer
	in     io.Reader
	db     *sql.DB
}

// load reads and validates the config and builds the shared collaborators.
// A missing default deck is reported before anything else happens.
func (g *globals) load(cmd *cobra.Command) (*env, error) {
	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if g.provider != "" {
		cfg.LLM.Provider = g.provider
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if g.model != "" {
		cfg.LLM.Model = g.model
	}
	logger := app.NewLogger(cmd.ErrOrStderr(), cfg.Log, g.debug)
	return &env{
		path:   path,
		cfg:    cfg,
		logger: logger,
		anki:   anki.NewClient(cfg.AnkiConnectURL, anki.WithLogger(logger)),
		out:    cmd.OutOrStdout(),
		in:     cmd.InOrStdin(),
	}, nil
}

func (e *env) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
}

// options resolves the deck and language for a command.
func (e *env) options(g *globals, deck, language string) (tutor.Options, error) {
	opts := tutor.Options{Deck: e.cfg.DefaultDeck, Language: e.cfg.Language(), SkipConfirm: g.skipConfirm}
	if deck != "" {
		opts.Deck = deck
	}
	if language != "" {
		lang, err := flashcard.ParseLanguage(language)
		if err != nil {
			return opts, err
		}
		opts.Language = lang
	}
	return opts, nil
}

func (e *env) completer() llm.Completer {
	if strings.EqualFold(e.cfg.LLM.Provider, "ollama") {
		cfg := llm.DefaultOllamaConfig()
		cfg.BaseURL = e.cfg.LLM.OllamaURL
		if e.cfg.LLM.Model != "" {
			cfg.Model = e.cfg.LLM.Model
		}
		cfg.Seed = e.cfg.LLM.Seed
		return llm.NewOllama(cfg)
	}
	return llm.NewAnthropic(e.cfg.LLM.APIKey, e.cfg.LLM.Model, e.cfg.LLM.MaxTokens)
}

func (e *env) generator() *llm.Generator {
	return llm.NewGenerator(e.completer(), e.cfg.LearnerLevel, e.logger)
}

// speaker returns nil when speech is not configured.
func (e *env) speaker() tutor.Speaker {
	sc := e.cfg.Speech
	if sc.Key == "" || sc.Region == "" {
		e.logger.Info("speech not configured, cards are added without audio")
		return nil
	}
	dir := sc.MediaDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dir, err = anki.DefaultMediaDir(runtime.GOOS, home)
		}
		if err != nil {
			e.logger.Warn("locate anki media dir, cards are added without audio", slog.Any("error", err))
			return nil
		}
	}
	return tts.NewAzure(tts.AzureConfig{Key: sc.Key, Region: sc.Region, MediaDir: dir}, e.logger)
}

// history opens the history database. Failing to open it only disables history.
func (e *env) history() *tutor.SQLHistory {
	if e.db == nil {
		conn, err := db.Open(e.cfg.HistoryPath)
		if err != nil {
			e.logger.Warn("history disabled", slog.String("path", e.cfg.HistoryPath), slog.Any("error", err))
			return nil
		}
		e.db = conn
	}
	return &tutor.SQLHistory{DB: e.db}
}

func (e *env) service(confirm tutor.ConfirmFunc) (*tutor.Service, error) {
	conv, err := chinese.NewConverter()
	if err != nil {
		return nil, err
	}
	d := tutor.Deps{
		Store:      e.anki,
		Generator:  e.generator(),
		Normalizer: conv,
		Speaker:    e.speaker(),
		Confirm:    confirm,
		Logger:     e.logger,
	}
	if h := e.history(); h != nil {
		d.Recorder = h
		d.Progress = h
	}
	return tutor.New(d), nil
}

// confirmer previews each card and asks before it is written.
func (e *env) confirmer() tutor.ConfirmFunc {
	r := bufio.NewReader(e.in)
	return func(card flashcard.Flashcard) bool {
		printCard(e.out, card)
		fmt.Fprint(e.out, "Add this card? [y/N] ")
		line, _ := r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func printCard(w io.Writer, card flashcard.Flashcard) {
	v := card.Variant()
	fmt.Fprintf(w, "\n%s (%s)\n", card.Word, card.Pronunciation)
	fmt.Fprintf(w, "  %-10s %s\n", "English:", card.English)
	fmt.Fprintf(w, "  %-10s %s\n", "Example:", card.SampleUsage)
	fmt.Fprintf(w, "  %-10s %s\n", "", card.SampleUsageEnglish)
	if card.Frequency != "" {
		fmt.Fprintf(w, "  %-10s %s\n", "Frequency:", card.Frequency)
	}
	if len(card.RelatedWords) > 0 {
		fmt.Fprintf(w, "  Related (%s):\n", v.PronunciationLabel)
		for _, rw := range card.RelatedWords {
			fmt.Fprintf(w, "    %s%s\n", flashcard.Bullet, rw)
		}
	}
}

func printReport(w io.Writer, report tutor.Report) {
	for _, res := range report.Results {
		switch res.Outcome {
		case tutor.Added:
			fmt.Fprintf(w, "%s: added (note %d)\n", res.Word, res.NoteID)
			if res.AudioErr != nil {
				fmt.Fprintf(w, "  audio unavailable: %v\n", res.AudioErr)
			}
		case tutor.Exists:
			fmt.Fprintf(w, "%s: already in deck (note %d)\n", res.Word, res.NoteID)
		case tutor.Declined:
			fmt.Fprintf(w, "%s: skipped\n", res.Word)
		case tutor.Failed:
			fmt.Fprintf(w, "%s: failed: %v\n", res.Word, res.Err)
		}
	}
	if report.Interrupted {
		fmt.Fprintf(w, "Interrupted. Added %d card(s) before stopping.\n", report.Added())
		return
	}
	fmt.Fprintf(w, "Added %d card(s).\n", report.Added())
}
