package store

import (
	"fmt"
	"time"
)

// AuditEntry is one row of the append-only audit log.
type AuditEntry struct {
	// ID is assigned by the database on insert.
	ID int64 `json:"id"`
	// SessionID groups entries by batch.
	SessionID string `json:"session_id"`
	// Actor identifies who or what performed the action.
	Actor string `json:"actor"`
	// Action is the action type, e.g. "safety_check" or "tool_invocation".
	Action string `json:"action"`
	// Payload is the full argument payload, JSON-encoded.
	Payload string `json:"payload,omitempty"`
	// SafetyScore is the safety score attached to the action.
	SafetyScore float64 `json:"safety_score"`
	// CreatedAt is when the entry was appended.
	CreatedAt time.Time `json:"created_at"`
}

// AppendAudit appends an entry to the audit log. Entries are never updated
// or deleted.
func (db *DB) AppendAudit(e *AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := db.Exec(`
		INSERT INTO audit_log (session_id, actor, action, payload, safety_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.Actor, e.Action, e.Payload, e.SafetyScore, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// ListAudit returns a session's audit entries in append order.
func (db *DB) ListAudit(sessionID string) ([]*AuditEntry, error) {
	rows, err := db.Query(`
		SELECT id, session_id, actor, action, payload, safety_score, created_at
		FROM audit_log WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Actor, &e.Action, &e.Payload, &e.SafetyScore, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if t, err := parseTime(createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
