package tts

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/japaniel/tutor/pkg/flashcard"
)

// FilePrefix starts the name of every generated audio file.
const FilePrefix = "chinese-tutor-"

// ErrNotConfigured is returned when no speech key or region is set.
var ErrNotConfigured = errors.New("azure speech key and region are not configured")

// FileName names the audio for text by the MD5 of its content.
func FileName(text string) string {
	sum := md5.Sum([]byte(text))
	return FilePrefix + hex.EncodeToString(sum[:]) + ".wav"
}

// AzureConfig configures the Azure speech client.
type AzureConfig struct {
	Key    string
	Region string
	// MediaDir is where audio files are written, normally Anki's collection.media.
	MediaDir string
	// Endpoint overrides the regional endpoint.
	Endpoint string
}

// Azure synthesizes speech with the Azure Cognitive Services REST API.
type Azure struct {
	config     AzureConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAzure creates a speech client.
func NewAzure(cfg AzureConfig, logger *slog.Logger) *Azure {
	if cfg.Endpoint == "" && cfg.Region != "" {
		cfg.Endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Azure{config: cfg, httpClient: &http.Client{Timeout: 30 * time.Second}, logger: logger}
}

// Synthesize writes speech for text in lang's voice and returns the file path.
// Text that already has a file is not synthesized again.
func (a *Azure) Synthesize(ctx context.Context, text string, lang flashcard.Language) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("synthesize: empty text")
	}
	path := filepath.Join(a.config.MediaDir, FileName(text))
	if _, err := os.Stat(path); err == nil {
		a.logger.Debug("audio exists", slog.String("path", path))
		return path, nil
	}
	if a.config.Key == "" || a.config.Endpoint == "" {
		return "", ErrNotConfigured
	}

	voice := lang.Variant().Voice
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewReader(ssml(text, voice)))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.config.Key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "riff-24khz-16bit-mono-pcm")
	req.Header.Set("User-Agent", "chinese-tutor")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure speech: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("azure speech: status %d: %s", resp.StatusCode, string(b))
	}

	if err := os.MkdirAll(a.config.MediaDir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	tmp, err := os.CreateTemp(a.config.MediaDir, ".tts-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	a.logger.Info("audio synthesized", slog.String("voice", voice), slog.String("path", path))
	return path, nil
}

func ssml(text, voice string) []byte {
	locale := voice
	if i := strings.LastIndex(voice, "-"); i > 0 {
		locale = voice[:i]
	}
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(text))
	return []byte(fmt.Sprintf(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		locale, voice, escaped.String()))
}
