// Package audit records every safety decision and tool invocation.
package audit

import (
	"encoding/json"
	"fmt"

	"github.com/taskwright/taskwright/internal/store"
)

// Action types recorded in the audit log.
const (
	ActionSafetyCheck     = "safety_check"
	ActionBatchScreen     = "batch_screen"
	ActionToolInvocation  = "tool_invocation"
	ActionToolResult      = "tool_result"
	ActionApprovalRequest = "approval_request"
	ActionApprovalGranted = "approval_granted"
	ActionApprovalDenied  = "approval_denied"
	ActionTaskSkipped     = "task_skipped"
)

// Sink is the append-only destination for audit entries.
type Sink interface {
	AppendAudit(e *store.AuditEntry) error
}

// Logger appends audit entries for one session. For risky actions the
// entry is written before the side effect is permitted to proceed, so a
// write failure blocks the action.
type Logger struct {
	sink      Sink
	sessionID string
}

// NewLogger creates a Logger writing to the given sink under the session id.
func NewLogger(sink Sink, sessionID string) *Logger {
	return &Logger{sink: sink, sessionID: sessionID}
}

// SessionID returns the session this logger writes under.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Record appends one entry. The payload is JSON-encoded in full; a payload
// that cannot be encoded is an error, not a silently truncated entry.
func (l *Logger) Record(actor, action string, payload any, safetyScore float64) error {
	var encoded string
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode audit payload: %w", err)
		}
		encoded = string(data)
	}

	entry := &store.AuditEntry{
		SessionID:   l.sessionID,
		Actor:       actor,
		Action:      action,
		Payload:     encoded,
		SafetyScore: safetyScore,
	}
	if err := l.sink.AppendAudit(entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
