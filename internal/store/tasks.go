package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/taskwright/taskwright/pkg/models"
)

// SaveBatch inserts a batch record. Task records are saved separately so an
// external observer can see gated tasks before execution begins.
func (db *DB) SaveBatch(b *models.Batch) error {
	_, err := db.Exec(`
		INSERT INTO batches (id, instruction, safe, safety_flags, safety_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.Instruction, boolToInt(b.Safety.Safe), strings.Join(b.Safety.Flags, ","), b.Safety.Score, formatTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// GetBatch retrieves a batch record by id, without its tasks.
func (db *DB) GetBatch(id string) (*models.Batch, error) {
	row := db.QueryRow(`
		SELECT id, instruction, safe, safety_flags, safety_score, created_at
		FROM batches WHERE id = ?
	`, id)

	var b models.Batch
	var safe int
	var flags, createdAt string
	if err := row.Scan(&b.ID, &b.Instruction, &safe, &flags, &b.Safety.Score, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("batch %s not found", id)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	b.Safety.Safe = safe != 0
	b.Safety.Flags = splitFlags(flags)
	if t, err := parseTime(createdAt); err == nil {
		b.CreatedAt = t
	}
	return &b, nil
}

// ListBatches retrieves the most recent batch records, newest first,
// without their tasks.
func (db *DB) ListBatches(limit int) ([]*models.Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, instruction, safe, safety_flags, safety_score, created_at
		FROM batches ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []*models.Batch
	for rows.Next() {
		var b models.Batch
		var safe int
		var flags, createdAt string
		if err := rows.Scan(&b.ID, &b.Instruction, &safe, &flags, &b.Safety.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.Safety.Safe = safe != 0
		b.Safety.Flags = splitFlags(flags)
		if t, err := parseTime(createdAt); err == nil {
			b.CreatedAt = t
		}
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}

// SaveTask inserts a task record.
func (db *DB) SaveTask(t *models.Task) error {
	dependsOn, err := json.Marshal(t.DependsOn)
	if err != nil {
		return fmt.Errorf("marshal depends_on: %w", err)
	}
	requiredInfo, err := json.Marshal(t.RequiredInfo)
	if err != nil {
		return fmt.Errorf("marshal required_info: %w", err)
	}
	missingInfo, err := json.Marshal(t.MissingInfo)
	if err != nil {
		return fmt.Errorf("marshal missing_info: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO tasks (
			id, batch_id, ord, type, description, risk_level, requires_approval,
			depends_on, required_info, missing_info,
			safe, safety_flags, safety_score,
			status, result, error_message, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.BatchID, t.Order, string(t.Type), t.Description, string(t.RiskLevel), boolToInt(t.RequiresApproval),
		string(dependsOn), string(requiredInfo), string(missingInfo),
		boolToInt(t.Safety.Safe), strings.Join(t.Safety.Flags, ","), t.Safety.Score,
		string(t.Status), t.Result, t.ErrorMessage, formatTime(t.CreatedAt), nullableTime(t.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// UpdateTask persists the mutable fields of a task record.
func (db *DB) UpdateTask(t *models.Task) error {
	missingInfo, err := json.Marshal(t.MissingInfo)
	if err != nil {
		return fmt.Errorf("marshal missing_info: %w", err)
	}

	res, err := db.Exec(`
		UPDATE tasks
		SET status = ?, result = ?, error_message = ?, missing_info = ?, requires_approval = ?, completed_at = ?
		WHERE id = ?
	`, string(t.Status), t.Result, t.ErrorMessage, string(missingInfo), boolToInt(t.RequiresApproval), nullableTime(t.CompletedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s not found", t.ID)
	}
	return nil
}

// GetTask retrieves a task record by id.
func (db *DB) GetTask(id string) (*models.Task, error) {
	row := db.QueryRow(taskSelect+" WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %s not found", id)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListTasks retrieves a batch's task records ordered by order.
func (db *DB) ListTasks(batchID string) ([]*models.Task, error) {
	rows, err := db.Query(taskSelect+" WHERE batch_id = ? ORDER BY ord", batchID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

const taskSelect = `
	SELECT id, batch_id, ord, type, description, risk_level, requires_approval,
		depends_on, required_info, missing_info,
		safe, safety_flags, safety_score,
		status, result, error_message, created_at, completed_at
	FROM tasks`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	var typ, risk, status, createdAt, flags string
	var requiresApproval, safe int
	var dependsOn, requiredInfo, missingInfo, result, errorMessage sql.NullString
	var completedAt sql.NullString

	err := row.Scan(
		&t.ID, &t.BatchID, &t.Order, &typ, &t.Description, &risk, &requiresApproval,
		&dependsOn, &requiredInfo, &missingInfo,
		&safe, &flags, &t.Safety.Score,
		&status, &result, &errorMessage, &createdAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = models.TaskType(typ)
	t.RiskLevel = models.RiskLevel(risk)
	t.RequiresApproval = requiresApproval != 0
	t.Safety.Safe = safe != 0
	t.Safety.Flags = splitFlags(flags)
	t.Status = models.TaskStatus(status)
	t.Result = result.String
	t.ErrorMessage = errorMessage.String

	if dependsOn.Valid && dependsOn.String != "" {
		if err := json.Unmarshal([]byte(dependsOn.String), &t.DependsOn); err != nil {
			return nil, fmt.Errorf("unmarshal depends_on: %w", err)
		}
	}
	if requiredInfo.Valid && requiredInfo.String != "" {
		if err := json.Unmarshal([]byte(requiredInfo.String), &t.RequiredInfo); err != nil {
			return nil, fmt.Errorf("unmarshal required_info: %w", err)
		}
	}
	if missingInfo.Valid && missingInfo.String != "" {
		if err := json.Unmarshal([]byte(missingInfo.String), &t.MissingInfo); err != nil {
			return nil, fmt.Errorf("unmarshal missing_info: %w", err)
		}
	}

	if parsed, err := parseTime(createdAt); err == nil {
		t.CreatedAt = parsed
	}
	t.CompletedAt = parseNullableTime(completedAt)

	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func splitFlags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
