package anki

import (
	"context"
	"slices"
)

// ListDecks returns every deck name.
func (c *Client) ListDecks(ctx context.Context) ([]string, error) {
	var decks []string
	if err := c.Do(ctx, ActionDeckNames, nil, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// AddDeck creates a deck and returns its id.
func (c *Client) AddDeck(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := c.Do(ctx, ActionCreateDeck, map[string]any{"deck": name}, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// MaybeAddDeck creates name unless a deck with exactly that name exists.
// It reports whether a deck was created.
func (c *Client) MaybeAddDeck(ctx context.Context, name string) (bool, error) {
	decks, err := c.ListDecks(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(decks, name) {
		return false, nil
	}
	if _, err := c.AddDeck(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

// Subdeck joins a base deck and a leaf with the Anki hierarchy separator.
func Subdeck(base, leaf string) string {
	return base + "::" + leaf
}
