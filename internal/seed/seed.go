// Package seed materializes concrete daily task instances from recurring
// templates and resolves what happens to them when a template's pattern
// changes. Every function is a pure transformation (aside from ID minting
// and timestamps): it describes the mutations the caller should apply,
// never touching shared state, so it is safe to run on every app
// foreground and every template edit.
package seed

import (
	"time"

	"github.com/google/uuid"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
)

type pair struct {
	templateID string
	day        daykey.Key
}

// Anchor is a one-shot suppression token keyed like a skip record. It
// closes the race between "instance just detached or deleted" and "skip
// record not yet visible to this seeding pass": the caller sets it when it
// performs the detach/delete and the very next seeding pass honors it.
// The holder must clear it after exactly one pass, matched or not.
type Anchor struct {
	TemplateID string
	Day        daykey.Key
}

// Result describes the outcome of one seeding pass.
type Result struct {
	Created []model.TaskInstance
	Skipped int
}

// Seed returns the instances that must be created so that every
// (template, day) pair whose weekday matches has exactly one instance,
// unless an existing instance, a skip record, or the anchor suppresses it.
//
// Idempotent by construction: pairs already present in existing are
// skipped, and each created pair is registered immediately so a single
// pass can never double-create. New instances get sort orders appended
// after the day's pre-existing maximum (a missing sort order counts as 0).
func Seed(challengeID string, days []daykey.Key, templates []model.RecurringTemplate, existing []model.TaskInstance, skips []model.SkipRecord, anchor *Anchor) Result {
	exists := make(map[pair]bool)
	nextOrder := make(map[daykey.Key]int)
	for _, inst := range existing {
		if inst.TemplateID != nil {
			exists[pair{*inst.TemplateID, inst.DayKey}] = true
		}
		order := 0
		if inst.SortOrder != nil {
			order = *inst.SortOrder
		}
		if order+1 > nextOrder[inst.DayKey] {
			nextOrder[inst.DayKey] = order + 1
		}
	}

	suppressed := make(map[pair]bool, len(skips))
	for _, s := range skips {
		suppressed[pair{s.TemplateID, daykey.Key(s.DayKey)}] = true
	}
	if anchor != nil {
		suppressed[pair{anchor.TemplateID, anchor.Day}] = true
	}

	now := time.Now().UTC()
	var res Result
	for _, day := range days {
		weekday := day.Weekday()
		for _, tmpl := range templates {
			if !tmpl.RepeatsOn(weekday) {
				continue
			}
			key := pair{tmpl.ID, day}
			if exists[key] || suppressed[key] {
				res.Skipped++
				continue
			}

			templateID := tmpl.ID
			order := nextOrder[day]
			nextOrder[day] = order + 1
			exists[key] = true

			res.Created = append(res.Created, model.TaskInstance{
				ID:           uuid.NewString(),
				ChallengeID:  challengeID,
				DayKey:       day,
				Name:         tmpl.Name,
				TemplateID:   &templateID,
				OriginalName: tmpl.Name,
				Points:       map[string]int{},
				SortOrder:    &order,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
	}
	return res
}

// HasLocalEdits reports whether the user has diverged the instance from
// its template: any points logged, or a rename away from the seeded name.
// Untouched instances are safe to remove silently; touched ones must be
// preserved by detaching.
func HasLocalEdits(inst model.TaskInstance) bool {
	for _, p := range inst.Points {
		if p > 0 {
			return true
		}
	}
	return inst.OriginalName != "" && inst.Name != inst.OriginalName
}
