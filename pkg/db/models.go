package db

import "time"

// Status is the outcome recorded for one word.
type Status string

const (
	StatusAdded       Status = "added"
	StatusExists      Status = "exists"
	StatusDeclined    Status = "declined"
	StatusFailed      Status = "failed"
	StatusRegenerated Status = "regenerated"
	StatusFixed       Status = "fixed"
)

// Generation is one recorded flashcard outcome.
type Generation struct {
	ID        int64
	Word      string
	Language  string
	Deck      string
	Status    Status
	NoteID    int64
	SourceID  int64
	Detail    string
	CreatedAt time.Time
}

// Source is an article that flashcards were extracted from.
type Source struct {
	ID                     int64
	URL                    string
	Title                  string
	Deck                   string
	LastProcessedParagraph int
	AddedAt                time.Time
}
