package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// RecordGeneration stores the outcome for one word and returns its id.
func RecordGeneration(db DBExecutor, g Generation) (int64, error) {
	word := strings.TrimSpace(g.Word)
	if word == "" {
		return 0, fmt.Errorf("word must be non-empty")
	}
	if g.Status == "" {
		return 0, fmt.Errorf("status must be non-empty")
	}
	res, err := db.Exec(
		`INSERT INTO generations (word, language, deck, status, note_id, source_id, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		word, g.Language, g.Deck, string(g.Status), nullableInt64(g.NoteID), nullableInt64(g.SourceID), g.Detail,
	)
	if err != nil {
		return 0, fmt.Errorf("insert generation: %w", err)
	}
	return res.LastInsertId()
}

// RecentGenerations returns the latest outcomes, newest first.
func RecentGenerations(db DBExecutor, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`SELECT id, word, language, deck, status, IFNULL(note_id, 0), IFNULL(source_id, 0), detail, created_at
		FROM generations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Generation
	for rows.Next() {
		var g Generation
		var status string
		if err := rows.Scan(&g.ID, &g.Word, &g.Language, &g.Deck, &status, &g.NoteID, &g.SourceID, &g.Detail, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Status = Status(status)
		out = append(out, g)
	}
	return out, rows.Err()
}

// CountByStatus tallies recorded outcomes for a word in a language.
func CountByStatus(db DBExecutor, word, language string) (map[Status]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM generations WHERE word = ? AND language = ? GROUP BY status`, word, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[Status]int{}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[Status(s)] = n
	}
	return out, rows.Err()
}

// CreateOrGetSource returns existing source id or inserts a new source and returns its id.
func CreateOrGetSource(db DBExecutor, url, title, deck string) (int64, error) {
	trimmedURL := strings.TrimSpace(url)
	if trimmedURL == "" {
		return 0, fmt.Errorf("url must be non-empty")
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		// First, try to find an existing source.
		err := db.QueryRow(`SELECT id FROM sources WHERE url = ?`, trimmedURL).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}

		// No existing row; try to insert one.
		res, err := db.Exec(`INSERT INTO sources (url, title, deck) VALUES (?, ?, ?)`, trimmedURL, title, deck)
		if err != nil {
			// If another process inserted the same source, retry the SELECT.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}

		// Insert succeeded; return the id directly
		return res.LastInsertId()
	}

	// If we've exhausted all retries, return an error
	return 0, fmt.Errorf("could not create or get source after %d retries", maxRetries)
}

// GetSource loads a source by id.
func GetSource(db DBExecutor, id int64) (Source, error) {
	var s Source
	err := db.QueryRow(`SELECT id, url, title, deck, last_processed_paragraph, added_at FROM sources WHERE id = ?`, id).
		Scan(&s.ID, &s.URL, &s.Title, &s.Deck, &s.LastProcessedParagraph, &s.AddedAt)
	if err != nil {
		return Source{}, fmt.Errorf("get source %d: %w", id, err)
	}
	return s, nil
}

// UpdateSourceProgress records the index of the last fully processed paragraph.
func UpdateSourceProgress(db DBExecutor, sourceID int64, paragraph int) error {
	if sourceID <= 0 {
		return fmt.Errorf("sourceID must be positive")
	}
	res, err := db.Exec(`UPDATE sources SET last_processed_paragraph = ? WHERE id = ?`, paragraph, sourceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("source %d not found", sourceID)
	}
	return nil
}

// nullableInt64 returns nil for 0 (meaning unset) else the value.
func nullableInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
