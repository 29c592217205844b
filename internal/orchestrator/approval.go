package orchestrator

import (
	"fmt"
	"sync"

	"github.com/taskwright/taskwright/pkg/models"
)

// ApprovalRequest is one task halted at the approval gate.
type ApprovalRequest struct {
	TaskID      string
	Order       int
	Description string
	RiskLevel   models.RiskLevel
}

// ApprovalManager tracks tasks halted awaiting human sign-off. Requests are
// keyed by task id; resolving a request removes it.
type ApprovalManager struct {
	mu      sync.Mutex
	pending map[string]ApprovalRequest
}

// NewApprovalManager creates an empty manager.
func NewApprovalManager() *ApprovalManager {
	return &ApprovalManager{pending: make(map[string]ApprovalRequest)}
}

// Register records a task as awaiting approval. Re-registering the same
// task id replaces the prior request.
func (m *ApprovalManager) Register(req ApprovalRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[req.TaskID] = req
}

// Pending returns the halted requests in order.
func (m *ApprovalManager) Pending() []ApprovalRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]ApprovalRequest, 0, len(m.pending))
	for _, req := range m.pending {
		reqs = append(reqs, req)
	}
	for i := 1; i < len(reqs); i++ {
		for j := i; j > 0 && reqs[j].Order < reqs[j-1].Order; j-- {
			reqs[j], reqs[j-1] = reqs[j-1], reqs[j]
		}
	}
	return reqs
}

// Discard drops a pending request without resolving it, for tasks that
// left the approval gate another way (a skipped dependency chain).
func (m *ApprovalManager) Discard(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, taskID)
}

// Resolve removes and returns the request for the given task id.
func (m *ApprovalManager) Resolve(taskID string) (ApprovalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.pending[taskID]
	if !ok {
		return ApprovalRequest{}, fmt.Errorf("no pending approval for task %s", taskID)
	}
	delete(m.pending, taskID)
	return req, nil
}
