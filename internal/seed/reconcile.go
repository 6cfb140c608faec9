package seed

import (
	"time"

	"github.com/matt0223/house-cup-sub001/internal/model"
)

// Reconciliation describes the required mutations after a template's
// weekday pattern shrinks. Applying them is the caller's job.
type Reconciliation struct {
	Removed  []model.TaskInstance
	Detached []model.TaskInstance
	Skips    []model.SkipRecord
}

// Reconcile decides the fate of existing instances of templateID whose
// weekday was removed from the pattern (oldDays minus newDays):
//
//   - untouched instances are removed outright: they never diverged from
//     the pattern, so no trace is needed, and if the weekday is later added
//     back the slot legitimately re-seeds;
//   - instances with local edits are detached (TemplateID nulled, the
//     user's work preserved as a permanent one-off) and a skip record is
//     emitted so a future pattern change cannot seed a colliding duplicate.
//
// Adding weekdays never needs reconciliation; seeding handles creation.
func Reconcile(templateID string, oldDays, newDays []int, instances []model.TaskInstance) Reconciliation {
	removed := make(map[int]bool, len(oldDays))
	for _, d := range oldDays {
		removed[d] = true
	}
	for _, d := range newDays {
		delete(removed, d)
	}

	var rec Reconciliation
	if len(removed) == 0 {
		return rec
	}

	now := time.Now().UTC()
	for _, inst := range instances {
		if inst.TemplateID == nil || *inst.TemplateID != templateID {
			continue
		}
		if !removed[inst.DayKey.Weekday()] {
			continue
		}
		if !HasLocalEdits(inst) {
			rec.Removed = append(rec.Removed, inst)
			continue
		}
		detached := inst
		detached.TemplateID = nil
		detached.UpdatedAt = now
		rec.Detached = append(rec.Detached, detached)
		rec.Skips = append(rec.Skips, model.SkipRecord{
			TemplateID: templateID,
			DayKey:     string(inst.DayKey),
		})
	}
	return rec
}

// Detach converts a templated instance into a permanent one-off ("edit
// this day only"). The returned skip record suppresses the slot so future
// seeding does not resurrect a templated duplicate; it is nil for
// instances that were never templated.
func Detach(inst model.TaskInstance) (model.TaskInstance, *model.SkipRecord) {
	if inst.TemplateID == nil {
		return inst, nil
	}
	rec := &model.SkipRecord{
		TemplateID: *inst.TemplateID,
		DayKey:     string(inst.DayKey),
	}
	inst.TemplateID = nil
	inst.UpdatedAt = time.Now().UTC()
	return inst, rec
}

// SkipForDelete returns the skip record that must accompany deleting a
// templated instance for a single day ("delete this day only"), or nil
// for one-offs where there is nothing to suppress.
func SkipForDelete(inst model.TaskInstance) *model.SkipRecord {
	if inst.TemplateID == nil {
		return nil
	}
	return &model.SkipRecord{
		TemplateID: *inst.TemplateID,
		DayKey:     string(inst.DayKey),
	}
}
