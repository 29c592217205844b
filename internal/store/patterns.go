package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pattern is one learned behavioral pattern: a trigger condition paired
// with the response that worked for it.
type Pattern struct {
	// ID is the unique identifier for this pattern.
	ID string `json:"id"`
	// Name is a short unique label.
	Name string `json:"name"`
	// Trigger describes the situation the pattern applies to.
	Trigger string `json:"trigger"`
	// Response describes the behavior that worked.
	Response string `json:"response"`
	// UseCount is the number of times the pattern has been retrieved.
	UseCount int `json:"use_count"`
	// CreatedAt is when the pattern was saved.
	CreatedAt time.Time `json:"created_at"`
}

// SavePattern stores a new learned pattern. The name must be unique.
func (db *DB) SavePattern(p *Pattern) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO patterns (id, name, trigger, response, use_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Trigger, p.Response, p.UseCount, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("save pattern: %w", err)
	}
	return nil
}

// ListPatterns returns all patterns, most used first.
func (db *DB) ListPatterns() ([]*Pattern, error) {
	rows, err := db.Query(`
		SELECT id, name, trigger, response, use_count, created_at
		FROM patterns ORDER BY use_count DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()
	return scanPatterns(rows)
}

// SearchPatterns runs a full-text search across pattern names, triggers,
// and responses, and bumps the use count of every hit.
func (db *DB) SearchPatterns(query string, limit int) ([]*Pattern, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := db.Query(`
		SELECT p.id, p.name, p.trigger, p.response, p.use_count, p.created_at
		FROM patterns p
		JOIN patterns_fts f ON p.rowid = f.rowid
		WHERE patterns_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search patterns: %w", err)
	}
	patterns, err := scanPatterns(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	for _, p := range patterns {
		if _, err := db.Exec("UPDATE patterns SET use_count = use_count + 1 WHERE id = ?", p.ID); err != nil {
			return nil, fmt.Errorf("bump pattern use count: %w", err)
		}
		p.UseCount++
	}
	return patterns, nil
}

// DeletePattern removes a pattern by name.
func (db *DB) DeletePattern(name string) error {
	res, err := db.Exec("DELETE FROM patterns WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pattern %q not found", name)
	}
	return nil
}

// ftsQuery quotes each term so user input cannot break FTS5 query syntax.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, ``) + `"`
	}
	return strings.Join(terms, " OR ")
}

func scanPatterns(rows *sql.Rows) ([]*Pattern, error) {
	var patterns []*Pattern
	for rows.Next() {
		var p Pattern
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Trigger, &p.Response, &p.UseCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		if t, err := parseTime(createdAt); err == nil {
			p.CreatedAt = t
		}
		patterns = append(patterns, &p)
	}
	return patterns, rows.Err()
}
