package model

import (
	"time"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
)

// MaxTaskPoints is the highest score one competitor can log on one task.
const MaxTaskPoints = 3

// TaskInstance is a concrete per-day task: either a one-off, or a
// materialization of a RecurringTemplate. A nil TemplateID means one-off
// or detached. OriginalName is set only for seeded instances and is used
// to detect user renames. Points maps competitor ID to 0..3.
type TaskInstance struct {
	ID           string         `json:"id"`
	ChallengeID  string         `json:"challenge_id"`
	DayKey       daykey.Key     `json:"day_key"`
	Name         string         `json:"name"`
	TemplateID   *string        `json:"template_id,omitempty"`
	OriginalName string         `json:"original_name,omitempty"`
	Points       map[string]int `json:"points"`
	SortOrder    *int           `json:"sort_order,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
