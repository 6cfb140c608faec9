package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matt0223/house-cup-sub001/internal/model"
)

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.RecurringTemplate, error) {
	var t model.RecurringTemplate
	var days string
	err := scanner.Scan(&t.ID, &t.HouseholdID, &t.Name, &days, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.RepeatDays = decodeDays(days)
	return &t, nil
}

const templateCols = `id, household_id, name, repeat_days, created_at, updated_at`

// encodeDays stores a weekday set as a comma-separated string ("1,3,5").
func encodeDays(days []int) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) []int {
	if s == "" {
		return []int{}
	}
	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return days
}

func (s *TemplateStore) Create(householdID, name string, repeatDays []int) (*model.RecurringTemplate, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO recurring_templates (id, household_id, name, repeat_days, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, householdID, name, encodeDays(repeatDays), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) GetByID(id string) (*model.RecurringTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM recurring_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *TemplateStore) ListByHousehold(householdID string) ([]model.RecurringTemplate, error) {
	rows, err := s.db.Query(
		`SELECT `+templateCols+` FROM recurring_templates WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) Update(id, name string, repeatDays []int) (*model.RecurringTemplate, error) {
	_, err := s.db.Exec(
		`UPDATE recurring_templates SET name = ?, repeat_days = ?, updated_at = ? WHERE id = ?`,
		name, encodeDays(repeatDays), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes the template. Its skip records go with it (they are
// logically scoped to the template); instance fate is the caller's job,
// decided before this point.
func (s *TemplateStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM recurring_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// --- Skip record methods ---

// CreateSkipRecord persists a suppression; duplicates are a no-op since
// the pair is the primary key and re-asserting it changes nothing.
func (s *TemplateStore) CreateSkipRecord(rec model.SkipRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO skip_records (template_id, day_key) VALUES (?, ?) ON CONFLICT (template_id, day_key) DO NOTHING`,
		rec.TemplateID, rec.DayKey,
	)
	if err != nil {
		return fmt.Errorf("insert skip record: %w", err)
	}
	return nil
}

func (s *TemplateStore) CreateSkipRecords(recs []model.SkipRecord) error {
	for _, rec := range recs {
		if err := s.CreateSkipRecord(rec); err != nil {
			return err
		}
	}
	return nil
}

// ListSkipRecords returns every skip record for the household's templates.
func (s *TemplateStore) ListSkipRecords(householdID string) ([]model.SkipRecord, error) {
	rows, err := s.db.Query(
		`SELECT sr.template_id, sr.day_key
		 FROM skip_records sr
		 JOIN recurring_templates t ON t.id = sr.template_id
		 WHERE t.household_id = ?
		 ORDER BY sr.day_key ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list skip records: %w", err)
	}
	defer rows.Close()

	var recs []model.SkipRecord
	for rows.Next() {
		var rec model.SkipRecord
		if err := rows.Scan(&rec.TemplateID, &rec.DayKey); err != nil {
			return nil, fmt.Errorf("scan skip record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
