package notetype

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/japaniel/tutor/pkg/anki"
	"github.com/japaniel/tutor/pkg/flashcard"
)

// Store is the subset of the AnkiConnect client the provisioner needs.
type Store interface {
	ModelNames(ctx context.Context) ([]string, error)
	ModelFieldNames(ctx context.Context, model string) ([]string, error)
	CreateModel(ctx context.Context, m anki.Model) error
	UpdateModelStyling(ctx context.Context, model, css string) error
	UpdateModelTemplates(ctx context.Context, model string, templates []anki.Template) error
}

// State is the provisioning state of one note type.
type State int

const (
	Absent State = iota
	Provisioned
	Incomplete
)

func (s State) String() string {
	switch s {
	case Provisioned:
		return "provisioned"
	case Incomplete:
		return "incomplete"
	default:
		return "absent"
	}
}

// SchemaIncompleteError lists the fields an existing note type lacks.
type SchemaIncompleteError struct {
	ModelName string
	Missing   []string
}

func (e *SchemaIncompleteError) Error() string {
	return fmt.Sprintf("note type %q exists but is missing fields: %s; it may already hold notes, so add the fields in Anki (Tools > Manage Note Types) and rerun setup",
		e.ModelName, strings.Join(e.Missing, ", "))
}

// Result describes what Provision did for one language.
type Result struct {
	Language  flashcard.Language
	ModelName string
	// Before is the state found before any change.
	Before  State
	Created bool
	Updated bool
	Missing []string
}

// Provisioner keeps the note types in Anki in line with the flashcard model.
type Provisioner struct {
	store  Store
	logger *slog.Logger
}

// New creates a Provisioner.
func New(store Store, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provisioner{store: store, logger: logger}
}

// Inspect reports the state of lang's note type and any missing fields.
func (p *Provisioner) Inspect(ctx context.Context, lang flashcard.Language) (State, []string, error) {
	name := lang.ModelName()
	names, err := p.store.ModelNames(ctx)
	if err != nil {
		return Absent, nil, err
	}
	if !slices.Contains(names, name) {
		return Absent, nil, nil
	}
	have, err := p.store.ModelFieldNames(ctx, name)
	if err != nil {
		return Absent, nil, fmt.Errorf("read fields of %q: %w", name, err)
	}
	var missing []string
	for _, f := range lang.Variant().RequiredFields() {
		if !slices.Contains(have, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Incomplete, missing, nil
	}
	return Provisioned, nil, nil
}

// Provision creates lang's note type when absent and refreshes its stylesheet
// and templates when complete. An incomplete note type is left untouched and
// reported with a SchemaIncompleteError.
func (p *Provisioner) Provision(ctx context.Context, lang flashcard.Language) (Result, error) {
	res := Result{Language: lang, ModelName: lang.ModelName()}

	state, missing, err := p.Inspect(ctx, lang)
	if err != nil {
		return res, err
	}
	res.Before = state

	switch state {
	case Incomplete:
		res.Missing = missing
		p.logger.Warn("note type incomplete", slog.String("model", res.ModelName), slog.Any("missing", missing))
		return res, &SchemaIncompleteError{ModelName: res.ModelName, Missing: missing}
	case Provisioned:
		if err := p.refresh(ctx, lang); err != nil {
			return res, err
		}
		res.Updated = true
		return res, nil
	}

	css, err := CSS(lang)
	if err != nil {
		return res, err
	}
	templates, err := Templates(lang)
	if err != nil {
		return res, err
	}
	if err := p.store.CreateModel(ctx, anki.Model{
		Name:      res.ModelName,
		Fields:    lang.Variant().RequiredFields(),
		CSS:       css,
		Templates: templates,
	}); err != nil {
		return res, fmt.Errorf("create note type %q: %w", res.ModelName, err)
	}
	p.logger.Info("note type created", slog.String("model", res.ModelName))
	res.Created = true
	return res, nil
}

// UpdateStyling refreshes the stylesheet and templates of an existing note type.
func (p *Provisioner) UpdateStyling(ctx context.Context, lang flashcard.Language) error {
	state, _, err := p.Inspect(ctx, lang)
	if err != nil {
		return err
	}
	if state == Absent {
		return &anki.NoteTypeMissingError{ModelName: lang.ModelName()}
	}
	return p.refresh(ctx, lang)
}

func (p *Provisioner) refresh(ctx context.Context, lang flashcard.Language) error {
	name := lang.ModelName()
	css, err := CSS(lang)
	if err != nil {
		return err
	}
	templates, err := Templates(lang)
	if err != nil {
		return err
	}
	if err := p.store.UpdateModelStyling(ctx, name, css); err != nil {
		return fmt.Errorf("update styling of %q: %w", name, err)
	}
	if err := p.store.UpdateModelTemplates(ctx, name, templates); err != nil {
		return fmt.Errorf("update templates of %q: %w", name, err)
	}
	p.logger.Info("note type styling updated", slog.String("model", name))
	return nil
}
