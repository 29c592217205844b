package audit

import (
	"strings"
	"testing"

	"github.com/taskwright/taskwright/internal/store"
)

type fakeSink struct {
	entries []*store.AuditEntry
	err     error
}

func (f *fakeSink) AppendAudit(e *store.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func TestRecord(t *testing.T) {
	sink := &fakeSink{}
	logger := NewLogger(sink, "session-1")

	payload := map[string]string{"tool": "deploy", "environment": "staging"}
	if err := logger.Record("coordinator", ActionToolInvocation, payload, 0.7); err != nil {
		t.Fatalf("record: %v", err)
	}

	if len(sink.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(sink.entries))
	}
	e := sink.entries[0]
	if e.SessionID != "session-1" || e.Actor != "coordinator" || e.Action != ActionToolInvocation {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.SafetyScore != 0.7 {
		t.Errorf("safety score = %v, want 0.7", e.SafetyScore)
	}
	if !strings.Contains(e.Payload, `"environment":"staging"`) {
		t.Errorf("payload not fully encoded: %s", e.Payload)
	}
}

func TestRecordNilPayload(t *testing.T) {
	sink := &fakeSink{}
	logger := NewLogger(sink, "s")

	if err := logger.Record("validator", ActionSafetyCheck, nil, 1.0); err != nil {
		t.Fatalf("record: %v", err)
	}
	if sink.entries[0].Payload != "" {
		t.Errorf("expected empty payload, got %q", sink.entries[0].Payload)
	}
}

func TestRecordUnencodablePayload(t *testing.T) {
	sink := &fakeSink{}
	logger := NewLogger(sink, "s")

	if err := logger.Record("x", ActionSafetyCheck, func() {}, 1.0); err == nil {
		t.Error("expected error for unencodable payload")
	}
	if len(sink.entries) != 0 {
		t.Error("failed encode must not append an entry")
	}
}
