package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaConfig configures the Ollama completer.
type OllamaConfig struct {
	// BaseURL is the Ollama API endpoint.
	BaseURL string

	// Model is the model name to use.
	Model string

	// Seed makes sampling repeatable for identical prompts.
	Seed int

	// InferenceTimeout bounds a single generation request.
	InferenceTimeout time.Duration
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL:          "http://localhost:11434",
		Model:            "qwen3:8b",
		Seed:             DefaultSeed,
		InferenceTimeout: 120 * time.Second,
	}
}

// ChatMessage represents a chat message.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatOptions are sampling parameters for a chat request.
type ChatOptions struct {
	Seed        int     `json:"seed"`
	Temperature float64 `json:"temperature"`
}

// ChatRequest is the request body for chat completions.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  *ChatOptions  `json:"options,omitempty"`
}

// ChatResponse is the response from chat completions.
type ChatResponse struct {
	Model     string      `json:"model"`
	CreatedAt string      `json:"created_at"`
	Message   ChatMessage `json:"message"`
	Done      bool        `json:"done"`
}

// Ollama completes prompts with a local Ollama server.
type Ollama struct {
	config     OllamaConfig
	httpClient *http.Client
}

// NewOllama creates an Ollama completer. Zero fields take their defaults.
func NewOllama(cfg OllamaConfig) *Ollama {
	def := DefaultOllamaConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.InferenceTimeout == 0 {
		cfg.InferenceTimeout = def.InferenceTimeout
	}
	return &Ollama{config: cfg, httpClient: &http.Client{Timeout: cfg.InferenceTimeout}}
}

// Complete implements Completer.
func (o *Ollama) Complete(ctx context.Context, req Request) (string, error) {
	chat := ChatRequest{
		Model:   o.config.Model,
		Stream:  false,
		Options: &ChatOptions{Seed: o.config.Seed, Temperature: 0},
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, ChatMessage{Role: "system", Content: req.System})
	}
	chat.Messages = append(chat.Messages, ChatMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		chat.Format = "json"
	}

	body, err := json.Marshal(chat)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama chat: status %d: %s", resp.StatusCode, string(b))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Message.Content == "" {
		return "", fmt.Errorf("ollama chat: empty response")
	}
	if !req.JSON {
		return chatResp.Message.Content, nil
	}
	return extractJSON(chatResp.Message.Content)
}
