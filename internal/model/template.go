package model

import "time"

// RecurringTemplate is a recurring task pattern: a name plus the weekdays
// (0=Sunday .. 6=Saturday) it repeats on. It is not itself schedulable;
// the seeding engine materializes one TaskInstance per matching day.
type RecurringTemplate struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	Name        string    `json:"name"`
	RepeatDays  []int     `json:"repeat_days"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RepeatsOn reports whether the pattern includes the given weekday.
func (t RecurringTemplate) RepeatsOn(weekday int) bool {
	for _, d := range t.RepeatDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// SkipRecord is a persisted negative assertion: do not seed TemplateID on
// DayKey even though the pattern matches. Written whenever a templated
// instance is deleted or detached for a single day, so re-seeding cannot
// resurrect what the user removed.
type SkipRecord struct {
	TemplateID string `json:"template_id"`
	DayKey     string `json:"day_key"`
}
