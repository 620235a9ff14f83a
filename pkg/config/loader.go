package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/japaniel/tutor/pkg/flashcard"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user config directory.
const AppName = "chinese-tutor"

// ErrNoDefaultDeck is returned when default_deck is not configured.
var ErrNoDefaultDeck = errors.New("default_deck is not set")

// Dir returns the per-OS config directory for goos.
func Dir(goos, home, appData string) string {
	if goos == "windows" {
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, AppName)
	}
	return filepath.Join(home, ".config", AppName)
}

// Path returns the config file path. TUTOR_CONFIG_PATH overrides it.
func Path() (string, error) {
	if p := os.Getenv("TUTOR_CONFIG_PATH"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: locate home dir: %w", err)
	}
	return filepath.Join(Dir(runtime.GOOS, home, os.Getenv("APPDATA")), "config.yaml"), nil
}

// Read loads the configuration at path without requiring any keys.
// Priority: ENV > YAML > defaults (via env-default tags).
// A missing file yields ENV + defaults only.
func Read(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = filepath.Join(filepath.Dir(path), "history.db")
	}
	if cfg.TopicsPath == "" {
		cfg.TopicsPath = filepath.Join(filepath.Dir(path), "conversation_topics.yaml")
	}
	return &cfg, nil
}

// Load reads the configuration at path and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks required keys and enumerations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DefaultDeck) == "" {
		return fmt.Errorf("%w; run `tutor config <deck>` to set it", ErrNoDefaultDeck)
	}
	if _, err := flashcard.ParseLanguage(c.DefaultLanguage); err != nil {
		return fmt.Errorf("default_language: %w", err)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "anthropic", "ollama":
	default:
		return fmt.Errorf("llm.provider: unsupported provider %q (want anthropic or ollama)", c.LLM.Provider)
	}
	return nil
}

// Language returns the parsed default language.
func (c *Config) Language() flashcard.Language {
	l, err := flashcard.ParseLanguage(c.DefaultLanguage)
	if err != nil {
		return flashcard.DefaultLanguage
	}
	return l
}

// Set rewrites the file at path with one top-level key changed. The rest of
// the mapping is preserved; the file is created when missing.
func Set(path, key, value string) error {
	doc := map[string]any{}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	doc[key] = value

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
