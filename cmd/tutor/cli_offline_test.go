package main_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/japaniel/tutor/pkg/anki/ankitest"
	"github.com/japaniel/tutor/pkg/flashcard"
)

var bin string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tutor-cli")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	bin = filepath.Join(dir, "tutor.bin")
	// Use the full import path so the build works from any working directory.
	build := exec.Command("go", "build", "-o", bin, "github.com/japaniel/tutor/cmd/tutor")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to build CLI:", err)
		os.RemoveAll(dir)
		os.Exit(1)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

const cardJSON = `{"flashcards":[{"word":"你好","pinyin":"nǐ hǎo","english":"hello","sample_usage":"你好，我叫小明。","sample_usage_english":"Hello, my name is Xiao Ming.","related_words":[{"word":"您好","pinyin":"nín hǎo","english":"hello (polite)","relationship":"formal variant"}],"frequency":"very common"}]}`

// ollamaServer answers every chat request with content.
func ollamaServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "qwen3:8b",
			"message": map[string]string{"role": "assistant", "content": content},
			"done":    true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func ankiServer(t *testing.T) *ankitest.Server {
	t.Helper()
	srv := ankitest.NewServer()
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, deck, ankiURL, ollamaURL string) string {
	t.Helper()
	var b strings.Builder
	if deck != "" {
		fmt.Fprintf(&b, "default_deck: %q\n", deck)
	}
	fmt.Fprintf(&b, "anki_connect_url: %q\n", ankiURL)
	fmt.Fprintf(&b, "history_path: %q\n", filepath.Join(dir, "history.db"))
	fmt.Fprintf(&b, "llm:\n  provider: ollama\n  ollama_url: %q\n", ollamaURL)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// run executes the CLI with only the given config visible.
func run(t *testing.T, configPath string, args ...string) (string, int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = filepath.Dir(configPath)
	cmd.Env = []string{
		"HOME=" + filepath.Dir(configPath),
		"PATH=" + os.Getenv("PATH"),
		"TUTOR_CONFIG_PATH=" + configPath,
	}
	cmd.Stdin = strings.NewReader("")
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		t.Fatalf("cli timed out, output:\n%s", out)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	if err != nil {
		t.Fatalf("cli failed to start: %v", err)
	}
	return string(out), 0
}

func TestCLI_GenerateIsIdempotent(t *testing.T) {
	tmp := t.TempDir()
	anki := ankiServer(t)
	anki.AddModel(flashcard.Mandarin.ModelName(), flashcard.Mandarin.Variant().RequiredFields()...)
	anki.AddDeck("Chinese::Test")
	llm := ollamaServer(t, cardJSON)
	cfg := writeConfig(t, tmp, "Chinese::Test", anki.URL, llm.URL)

	out, code := run(t, cfg, "g", "你好", "--skip-confirm")
	if code != 0 {
		t.Fatalf("first run exited %d:\n%s", code, out)
	}
	if !strings.Contains(out, "你好: added") || !strings.Contains(out, "Added 1 card(s).") {
		t.Fatalf("unexpected output of first run:\n%s", out)
	}

	out, code = run(t, cfg, "generate-flashcard-from-word", "你好", "--skip-confirm")
	if code != 0 {
		t.Fatalf("second run exited %d:\n%s", code, out)
	}
	if !strings.Contains(out, "你好: already in deck") || !strings.Contains(out, "Added 0 card(s).") {
		t.Fatalf("unexpected output of second run:\n%s", out)
	}

	notes := anki.Notes()
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if notes[0].Model != "chinese-tutor-mandarin" || notes[0].Deck != "Chinese::Test" {
		t.Fatalf("unexpected note: %+v", notes[0])
	}
	if got := notes[0].Fields[flashcard.RelatedWordsField]; !strings.Contains(got, "您好 (nín hǎo) - hello (polite) [formal variant]") {
		t.Fatalf("related words not stored: %q", got)
	}

	dbConn, err := sql.Open("sqlite3", filepath.Join(tmp, "history.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer dbConn.Close()
	var cnt int
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM generations").Scan(&cnt); err != nil {
		t.Fatalf("db query failed: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 history rows, found %d", cnt)
	}
}

func TestCLI_ItemFailureExitsZero(t *testing.T) {
	tmp := t.TempDir()
	anki := ankiServer(t)
	anki.AddModel(flashcard.Mandarin.ModelName(), flashcard.Mandarin.Variant().RequiredFields()...)
	llm := ollamaServer(t, `{"flashcards":[{"word":"坏","pinyin":"huài","english":"bad","sample_usage":"","frequency":"legendary"}]}`)
	cfg := writeConfig(t, tmp, "Chinese::Test", anki.URL, llm.URL)

	out, code := run(t, cfg, "g", "坏", "--skip-confirm")
	if code != 0 {
		t.Fatalf("expected exit 0 for an item failure, got %d:\n%s", code, out)
	}
	if !strings.Contains(out, "坏: failed") {
		t.Fatalf("expected failure to be reported:\n%s", out)
	}
	if len(anki.Notes()) != 0 {
		t.Fatalf("expected no notes to be added")
	}
}

func TestCLI_StructuralFailuresExitNonZero(t *testing.T) {
	tmp := t.TempDir()
	anki := ankiServer(t)
	llm := ollamaServer(t, cardJSON)

	cfg := writeConfig(t, tmp, "", anki.URL, llm.URL)
	out, code := run(t, cfg, "g", "你好", "--skip-confirm")
	if code == 0 || !strings.Contains(out, "default_deck is not set") {
		t.Fatalf("expected missing deck error, exit %d:\n%s", code, out)
	}

	cfg = writeConfig(t, tmp, "Chinese::Test", anki.URL, llm.URL)
	out, code = run(t, cfg, "g", "你好", "--skip-confirm")
	if code == 0 || !strings.Contains(out, "tutor setup-anki") {
		t.Fatalf("expected missing note type error, exit %d:\n%s", code, out)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()
	cfg = writeConfig(t, tmp, "Chinese::Test", closedURL, llm.URL)
	out, code = run(t, cfg, "g", "你好", "--skip-confirm")
	if code == 0 || !strings.Contains(out, "is Anki running") {
		t.Fatalf("expected transport error, exit %d:\n%s", code, out)
	}
}

func TestCLI_SetupAnkiAndConfig(t *testing.T) {
	tmp := t.TempDir()
	anki := ankiServer(t)
	llm := ollamaServer(t, cardJSON)
	cfg := writeConfig(t, tmp, "Chinese::Test", anki.URL, llm.URL)

	out, code := run(t, cfg, "setup-anki")
	if code != 0 {
		t.Fatalf("setup-anki exited %d:\n%s", code, out)
	}
	for _, lang := range flashcard.Languages() {
		if _, ok := anki.Model(lang.ModelName()); !ok {
			t.Fatalf("note type %s was not created", lang.ModelName())
		}
		if !strings.Contains(out, lang.ModelName()+": created") {
			t.Fatalf("missing summary for %s:\n%s", lang.ModelName(), out)
		}
	}

	out, code = run(t, cfg, "setup-anki", "--languages", "cantonese")
	if code != 0 || !strings.Contains(out, "chinese-tutor-cantonese: up to date") {
		t.Fatalf("second setup-anki exited %d:\n%s", code, out)
	}

	out, code = run(t, cfg, "config", "Chinese::Reading", "--language", "cantonese")
	if code != 0 {
		t.Fatalf("config exited %d:\n%s", code, out)
	}
	if !strings.Contains(out, "default_deck:     Chinese::Reading") || !strings.Contains(out, "default_language: cantonese") {
		t.Fatalf("config not updated:\n%s", out)
	}
	b, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "anki_connect_url") {
		t.Fatalf("other keys were dropped:\n%s", b)
	}
}
