package tutor

import (
	"database/sql"
	"fmt"

	"github.com/japaniel/tutor/pkg/db"
)

// SQLHistory records outcomes and article progress in the local sqlite database.
type SQLHistory struct {
	DB *sql.DB
}

// Record implements Recorder.
func (h SQLHistory) Record(g db.Generation) error {
	_, err := db.RecordGeneration(h.DB, g)
	return err
}

// Source implements Progress.
func (h SQLHistory) Source(url, title, deck string) (int64, int, error) {
	id, err := db.CreateOrGetSource(h.DB, url, title, deck)
	if err != nil {
		return 0, 0, fmt.Errorf("source %q: %w", url, err)
	}
	src, err := db.GetSource(h.DB, id)
	if err != nil {
		return 0, 0, err
	}
	return id, src.LastProcessedParagraph, nil
}

// Checkpoint implements Progress.
func (h SQLHistory) Checkpoint(sourceID int64, paragraph int) error {
	return db.UpdateSourceProgress(h.DB, sourceID, paragraph)
}
