package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is where the AnkiConnect add-on listens by default.
const DefaultURL = "http://localhost:8765"

// ProtocolVersion is the AnkiConnect API version spoken by this client.
const ProtocolVersion = 6

// Action is an AnkiConnect action name.
type Action string

const (
	ActionFindNotes            Action = "findNotes"
	ActionNotesInfo            Action = "notesInfo"
	ActionAddNote              Action = "addNote"
	ActionUpdateNoteFields     Action = "updateNoteFields"
	ActionDeckNames            Action = "deckNames"
	ActionCreateDeck           Action = "createDeck"
	ActionModelNames           Action = "modelNames"
	ActionModelFieldNames      Action = "modelFieldNames"
	ActionCreateModel          Action = "createModel"
	ActionUpdateModelStyling   Action = "updateModelStyling"
	ActionUpdateModelTemplates Action = "updateModelTemplates"
	ActionDeleteModel          Action = "deleteModel"
)

// Client talks to AnkiConnect. Calls are sequential and synchronous.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the AnkiConnect endpoint at url.
func NewClient(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Action  Action `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Do sends one action and decodes its result into out (which may be nil).
// Every typed operation goes through Do.
func (c *Client) Do(ctx context.Context, action Action, params, out any) error {
	body, err := json.Marshal(request{Action: action, Version: ProtocolVersion, Params: params})
	if err != nil {
		return fmt.Errorf("anki %s: encode request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("anki %s: create request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("anki request", slog.String("action", string(action)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Action: string(action), URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Action: string(action), URL: c.url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &ProtocolError{Action: string(action), StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return &ProtocolError{Action: string(action), StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error(), Body: string(raw)}
	}
	if r.Error != nil {
		return &ProtocolError{Action: string(action), StatusCode: resp.StatusCode, Message: *r.Error, Body: string(raw)}
	}
	if out == nil || len(r.Result) == 0 || string(r.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return &ProtocolError{Action: string(action), StatusCode: resp.StatusCode, Message: "unexpected result: " + err.Error(), Body: string(raw)}
	}
	return nil
}
