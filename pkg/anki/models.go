package anki

import "context"

// Template is a named card template.
type Template struct {
	Name  string
	Front string
	Back  string
}

// Model describes a note type to create.
type Model struct {
	Name      string
	Fields    []string
	CSS       string
	Templates []Template
}

// ModelNames lists every note type.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.Do(ctx, ActionModelNames, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ModelFieldNames lists a note type's fields in order.
func (c *Client) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	var names []string
	if err := c.Do(ctx, ActionModelFieldNames, map[string]any{"modelName": model}, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// CreateModel creates a note type with its fields, stylesheet and templates.
func (c *Client) CreateModel(ctx context.Context, m Model) error {
	templates := make([]map[string]string, 0, len(m.Templates))
	for _, t := range m.Templates {
		templates = append(templates, map[string]string{"Name": t.Name, "Front": t.Front, "Back": t.Back})
	}
	return c.Do(ctx, ActionCreateModel, map[string]any{
		"modelName":     m.Name,
		"inOrderFields": m.Fields,
		"css":           m.CSS,
		"isCloze":       false,
		"cardTemplates": templates,
	}, nil)
}

// UpdateModelStyling replaces a note type's stylesheet.
func (c *Client) UpdateModelStyling(ctx context.Context, model, css string) error {
	return c.Do(ctx, ActionUpdateModelStyling, map[string]any{
		"model": map[string]any{"name": model, "css": css},
	}, nil)
}

// UpdateModelTemplates replaces the front and back of the named templates.
func (c *Client) UpdateModelTemplates(ctx context.Context, model string, templates []Template) error {
	byName := make(map[string]map[string]string, len(templates))
	for _, t := range templates {
		byName[t.Name] = map[string]string{"Front": t.Front, "Back": t.Back}
	}
	return c.Do(ctx, ActionUpdateModelTemplates, map[string]any{
		"model": map[string]any{"name": model, "templates": byName},
	}, nil)
}

// DeleteModel removes a note type. Provisioning never calls it.
func (c *Client) DeleteModel(ctx context.Context, model string) error {
	return c.Do(ctx, ActionDeleteModel, map[string]any{"modelName": model}, nil)
}
