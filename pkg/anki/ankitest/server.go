// Package ankitest provides an in-memory AnkiConnect server for tests.
package ankitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Request is one recorded AnkiConnect call.
type Request struct {
	Action string
	Params map[string]any
}

// Note is a stored note.
type Note struct {
	ID     int64
	Deck   string
	Model  string
	Fields map[string]string
	Audio  []map[string]any
	Rated  bool
}

// Model is a stored note type.
type Model struct {
	Fields    []string
	CSS       string
	Templates map[string]map[string]string
}

// Server fakes the subset of AnkiConnect the tutor uses.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	decks    []string
	models   map[string]*Model
	notes    map[int64]*Note
	nextID   int64
	failures map[string]string
}

// NewServer starts a fake with a "Default" deck and no note types.
func NewServer() *Server {
	s := &Server{
		decks:    []string{"Default"},
		models:   map[string]*Model{},
		notes:    map[int64]*Note{},
		nextID:   1000,
		failures: map[string]string{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// AddModel registers a note type with the given fields.
func (s *Server) AddModel(name string, fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[name] = &Model{Fields: fields, Templates: map[string]map[string]string{}}
}

// AddDeck registers a deck.
func (s *Server) AddDeck(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.decks, name) {
		s.decks = append(s.decks, name)
	}
}

// AddNote stores a note directly and returns its id.
func (s *Server) AddNote(n Note) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.ID = s.nextID
	s.notes[n.ID] = &n
	return n.ID
}

// FailAction makes every call to action return msg as its error.
func (s *Server) FailAction(action, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[action] = msg
}

// Requests returns the recorded calls in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Actions returns the recorded action names in order.
func (s *Server) Actions() []string {
	var out []string
	for _, r := range s.Requests() {
		out = append(out, r.Action)
	}
	return out
}

// Reset clears the recorded calls.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Note returns a copy of a stored note.
func (s *Server) Note(id int64) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return Note{}, false
	}
	return *n, true
}

// Notes returns copies of every stored note ordered by id.
func (s *Server) Notes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Note
	for _, n := range s.notes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Model returns a copy of a stored note type.
func (s *Server) Model(name string) (Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[name]
	if !ok {
		return Model{}, false
	}
	return *m, true
}

// Decks returns the deck names.
func (s *Server) Decks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.decks)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string         `json:"action"`
		Version int            `json:"version"`
		Params  map[string]any `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{Action: req.Action, Params: req.Params})
	msg, failing := s.failures[req.Action]
	var (
		result any
		errMsg string
	)
	if failing {
		errMsg = msg
	} else {
		result, errMsg = s.dispatch(req.Action, req.Params)
	}
	s.mu.Unlock()

	resp := map[string]any{"result": result, "error": nil}
	if errMsg != "" {
		resp["result"] = nil
		resp["error"] = errMsg
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) dispatch(action string, p map[string]any) (any, string) {
	switch action {
	case "deckNames":
		return slices.Clone(s.decks), ""
	case "createDeck":
		name, _ := p["deck"].(string)
		if !slices.Contains(s.decks, name) {
			s.decks = append(s.decks, name)
		}
		return len(s.decks), ""
	case "modelNames":
		names := make([]string, 0, len(s.models))
		for name := range s.models {
			names = append(names, name)
		}
		sort.Strings(names)
		return names, ""
	case "modelFieldNames":
		m, ok := s.models[str(p["modelName"])]
		if !ok {
			return nil, "model was not found: " + str(p["modelName"])
		}
		return m.Fields, ""
	case "createModel":
		name := str(p["modelName"])
		if _, ok := s.models[name]; ok {
			return nil, "Model name already exists"
		}
		m := &Model{Fields: strs(p["inOrderFields"]), CSS: str(p["css"]), Templates: map[string]map[string]string{}}
		for _, t := range anys(p["cardTemplates"]) {
			tm, _ := t.(map[string]any)
			m.Templates[str(tm["Name"])] = map[string]string{"Front": str(tm["Front"]), "Back": str(tm["Back"])}
		}
		s.models[name] = m
		return map[string]any{"name": name}, ""
	case "updateModelStyling":
		model, _ := p["model"].(map[string]any)
		m, ok := s.models[str(model["name"])]
		if !ok {
			return nil, "model was not found: " + str(model["name"])
		}
		m.CSS = str(model["css"])
		return nil, ""
	case "updateModelTemplates":
		model, _ := p["model"].(map[string]any)
		m, ok := s.models[str(model["name"])]
		if !ok {
			return nil, "model was not found: " + str(model["name"])
		}
		templates, _ := model["templates"].(map[string]any)
		for name, t := range templates {
			tm, _ := t.(map[string]any)
			m.Templates[name] = map[string]string{"Front": str(tm["Front"]), "Back": str(tm["Back"])}
		}
		return nil, ""
	case "deleteModel":
		delete(s.models, str(p["modelName"]))
		return nil, ""
	case "findNotes":
		return s.find(str(p["query"])), ""
	case "notesInfo":
		var out []any
		for _, raw := range anys(p["notes"]) {
			id := int64(num(raw))
			n, ok := s.notes[id]
			if !ok {
				out = append(out, map[string]any{})
				continue
			}
			fields := map[string]any{}
			order := 0
			if m, ok := s.models[n.Model]; ok {
				for _, f := range m.Fields {
					fields[f] = map[string]any{"value": n.Fields[f], "order": order}
					order++
				}
			}
			for f, v := range n.Fields {
				if _, ok := fields[f]; !ok {
					fields[f] = map[string]any{"value": v, "order": order}
					order++
				}
			}
			out = append(out, map[string]any{"noteId": n.ID, "modelName": n.Model, "tags": []string{}, "fields": fields})
		}
		return out, ""
	case "addNote":
		note, _ := p["note"].(map[string]any)
		model := str(note["modelName"])
		if _, ok := s.models[model]; !ok {
			return nil, "model was not found: " + model
		}
		deck := str(note["deckName"])
		if !slices.Contains(s.decks, deck) {
			return nil, "deck was not found: " + deck
		}
		fields := map[string]string{}
		for k, v := range mapOf(note["fields"]) {
			fields[k] = str(v)
		}
		s.nextID++
		n := &Note{ID: s.nextID, Deck: deck, Model: model, Fields: fields}
		for _, a := range anys(note["audio"]) {
			n.Audio = append(n.Audio, mapOf(a))
		}
		s.notes[n.ID] = n
		return n.ID, ""
	case "updateNoteFields":
		note, _ := p["note"].(map[string]any)
		n, ok := s.notes[int64(num(note["id"]))]
		if !ok {
			return nil, "note was not found"
		}
		for k, v := range mapOf(note["fields"]) {
			n.Fields[k] = str(v)
		}
		for _, a := range anys(note["audio"]) {
			n.Audio = append(n.Audio, mapOf(a))
		}
		return nil, ""
	}
	return nil, "unsupported action: " + action
}

var (
	reDeck  = regexp.MustCompile(`"deck:((?:\\.|[^"\\])*)"`)
	reField = regexp.MustCompile(`"([A-Za-z ]+):((?:\\.|[^"\\])*)"`)
)

func unescape(s string) string {
	return strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\*`, `*`, `\_`, `_`).Replace(s)
}

func (s *Server) find(query string) []int64 {
	var deck, model, field, value string
	if m := reDeck.FindStringSubmatch(query); m != nil {
		deck = unescape(m[1])
	}
	for _, m := range reField.FindAllStringSubmatch(query, -1) {
		switch m[1] {
		case "deck":
		case "note":
			model = unescape(m[2])
		default:
			field, value = m[1], unescape(m[2])
		}
	}
	rated := strings.Contains(query, "rated:")

	ids := []int64{}
	for id, n := range s.notes {
		if deck != "" && n.Deck != deck && !strings.HasPrefix(n.Deck, deck+"::") {
			continue
		}
		if model != "" && n.Model != model {
			continue
		}
		if field != "" && n.Fields[field] != value {
			continue
		}
		if rated && !n.Rated {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	f, _ := v.(float64)
	return f
}

func anys(v any) []any {
	a, _ := v.([]any)
	return a
}

func strs(v any) []string {
	var out []string
	for _, x := range anys(v) {
		out = append(out, str(x))
	}
	return out
}

func mapOf(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
