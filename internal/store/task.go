package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.TaskInstance, error) {
	var t model.TaskInstance
	var templateID sql.NullString
	var sortOrder sql.NullInt64

	err := scanner.Scan(
		&t.ID, &t.ChallengeID, &t.DayKey, &t.Name, &templateID,
		&t.OriginalName, &sortOrder, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		t.TemplateID = &templateID.String
	}
	if sortOrder.Valid {
		order := int(sortOrder.Int64)
		t.SortOrder = &order
	}
	t.Points = map[string]int{}
	return &t, nil
}

const taskCols = `id, challenge_id, day_key, name, template_id, original_name, sort_order, created_at, updated_at`

// Create inserts a single instance exactly as built by the caller (the
// seeding engine or a one-off creation); IDs and timestamps come in on
// the value.
func (s *TaskStore) Create(inst model.TaskInstance) error {
	return s.CreateMany([]model.TaskInstance{inst})
}

// CreateMany inserts a batch of instances and their points in one
// transaction, so a seeding pass lands atomically.
func (s *TaskStore) CreateMany(insts []model.TaskInstance) error {
	if len(insts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, inst := range insts {
		var sortOrder sql.NullInt64
		if inst.SortOrder != nil {
			sortOrder = sql.NullInt64{Int64: int64(*inst.SortOrder), Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO task_instances (id, challenge_id, day_key, name, template_id, original_name, sort_order, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inst.ID, inst.ChallengeID, string(inst.DayKey), inst.Name, nullString(inst.TemplateID),
			inst.OriginalName, sortOrder, inst.CreatedAt, inst.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		for competitorID, points := range inst.Points {
			if _, err := tx.Exec(
				`INSERT INTO task_points (task_id, competitor_id, points) VALUES (?, ?, ?)`,
				inst.ID, competitorID, points,
			); err != nil {
				return fmt.Errorf("insert task points: %w", err)
			}
		}
	}
	return tx.Commit()
}

// GetByID returns the instance with its point ledger, or nil if absent.
func (s *TaskStore) GetByID(id string) (*model.TaskInstance, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM task_instances WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	rows, err := s.db.Query(`SELECT competitor_id, points FROM task_points WHERE task_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get task points: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var competitorID string
		var points int
		if err := rows.Scan(&competitorID, &points); err != nil {
			return nil, fmt.Errorf("scan task points: %w", err)
		}
		t.Points[competitorID] = points
	}
	return t, rows.Err()
}

// ListByChallenge returns the challenge's instances ordered for display
// (day, then sort order), with point ledgers merged in.
func (s *TaskStore) ListByChallenge(challengeID string) ([]model.TaskInstance, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM task_instances WHERE challenge_id = ? ORDER BY day_key ASC, sort_order ASC, created_at ASC`,
		challengeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.TaskInstance
	index := make(map[string]int)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pointRows, err := s.db.Query(
		`SELECT tp.task_id, tp.competitor_id, tp.points
		 FROM task_points tp
		 JOIN task_instances ti ON ti.id = tp.task_id
		 WHERE ti.challenge_id = ?`,
		challengeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list task points: %w", err)
	}
	defer pointRows.Close()
	for pointRows.Next() {
		var taskID, competitorID string
		var points int
		if err := pointRows.Scan(&taskID, &competitorID, &points); err != nil {
			return nil, fmt.Errorf("scan task points: %w", err)
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Points[competitorID] = points
		}
	}
	return tasks, pointRows.Err()
}

// ListByTemplateFrom returns the template's undetached instances on or
// after the given day, the set a "delete all future" cascade targets.
func (s *TaskStore) ListByTemplateFrom(templateID string, from daykey.Key) ([]model.TaskInstance, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM task_instances WHERE template_id = ? AND day_key >= ? ORDER BY day_key ASC`,
		templateID, string(from),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by template: %w", err)
	}
	defer rows.Close()

	var tasks []model.TaskInstance
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Rename(id, name string) error {
	_, err := s.db.Exec(
		`UPDATE task_instances SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("rename task: %w", err)
	}
	return nil
}

// SetPoints upserts one competitor's score on one task.
func (s *TaskStore) SetPoints(taskID, competitorID string, points int) error {
	_, err := s.db.Exec(
		`INSERT INTO task_points (task_id, competitor_id, points) VALUES (?, ?, ?)
		 ON CONFLICT (task_id, competitor_id) DO UPDATE SET points = excluded.points`,
		taskID, competitorID, points,
	)
	if err != nil {
		return fmt.Errorf("set task points: %w", err)
	}
	_, err = s.db.Exec(`UPDATE task_instances SET updated_at = ? WHERE id = ?`, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("touch task: %w", err)
	}
	return nil
}

// Detach nulls the instance's template link, making it a permanent
// one-off. The matching skip record is the caller's responsibility.
func (s *TaskStore) Detach(id string) error {
	_, err := s.db.Exec(
		`UPDATE task_instances SET template_id = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("detach task: %w", err)
	}
	return nil
}

func (s *TaskStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM task_instances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// DeleteMany removes a batch of instances in one transaction.
func (s *TaskStore) DeleteMany(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM task_instances WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
	}
	return tx.Commit()
}
