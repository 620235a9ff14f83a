package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// Anthropic completes prompts with the Anthropic Messages API.
// The API has no seed parameter, so temperature is pinned to zero instead.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates a completer. An empty apiKey falls back to ANTHROPIC_API_KEY.
func NewAnthropic(apiKey, model string, maxTokens int64, opts ...option.RequestOption) *Anthropic {
	if apiKey != "" {
		opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model, maxTokens: maxTokens}
}

// Complete implements Completer.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\nRespond with a single JSON object only, no markdown, no explanations.")
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if text == "" {
		return "", fmt.Errorf("anthropic messages: empty response")
	}
	if !req.JSON {
		return text, nil
	}

	jsonStr, err := extractJSON(text)
	if err != nil {
		return "", err
	}
	if !json.Valid([]byte(jsonStr)) {
		return "", fmt.Errorf("response does not contain valid JSON")
	}
	return jsonStr, nil
}
