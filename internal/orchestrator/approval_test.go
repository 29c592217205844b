package orchestrator

import (
	"testing"

	"github.com/taskwright/taskwright/pkg/models"
)

func TestApprovalManagerPendingOrder(t *testing.T) {
	m := NewApprovalManager()
	m.Register(ApprovalRequest{TaskID: "c", Order: 2, RiskLevel: models.RiskHigh})
	m.Register(ApprovalRequest{TaskID: "a", Order: 0, RiskLevel: models.RiskCritical})
	m.Register(ApprovalRequest{TaskID: "b", Order: 1, RiskLevel: models.RiskHigh})

	pending := m.Pending()
	if len(pending) != 3 {
		t.Fatalf("pending = %d", len(pending))
	}
	for i, req := range pending {
		if req.Order != i {
			t.Errorf("pending[%d].Order = %d", i, req.Order)
		}
	}
}

func TestApprovalManagerResolve(t *testing.T) {
	m := NewApprovalManager()
	m.Register(ApprovalRequest{TaskID: "a", Order: 0})

	req, err := m.Resolve("a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if req.TaskID != "a" {
		t.Errorf("resolved %q", req.TaskID)
	}
	if _, err := m.Resolve("a"); err == nil {
		t.Error("second resolve should fail")
	}
	if _, err := m.Resolve("never-registered"); err == nil {
		t.Error("unknown task should fail")
	}
}

func TestApprovalManagerDiscard(t *testing.T) {
	m := NewApprovalManager()
	m.Register(ApprovalRequest{TaskID: "a", Order: 0})
	m.Discard("a")
	m.Discard("a") // idempotent

	if len(m.Pending()) != 0 {
		t.Error("discarded request still pending")
	}
}

func TestApprovalManagerReregisterReplaces(t *testing.T) {
	m := NewApprovalManager()
	m.Register(ApprovalRequest{TaskID: "a", Order: 0, Description: "old"})
	m.Register(ApprovalRequest{TaskID: "a", Order: 0, Description: "new"})

	pending := m.Pending()
	if len(pending) != 1 || pending[0].Description != "new" {
		t.Errorf("pending = %+v", pending)
	}
}
