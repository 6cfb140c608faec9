package seed

import (
	"testing"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
)

func instance(id, tmplID string, day daykey.Key, name string) model.TaskInstance {
	inst := model.TaskInstance{
		ID: id, ChallengeID: "ch1", DayKey: day,
		Name: name, Points: map[string]int{},
	}
	if tmplID != "" {
		inst.TemplateID = &tmplID
		inst.OriginalName = name
	}
	return inst
}

func TestReconcileRemovesUntouched(t *testing.T) {
	// Tuesday (2026-01-20, weekday 2) is dropped from the pattern.
	instances := []model.TaskInstance{
		instance("a", "t1", "2026-01-19", "Exercise"), // Monday, stays
		instance("b", "t1", "2026-01-20", "Exercise"), // Tuesday, untouched
	}

	rec := Reconcile("t1", []int{1, 2}, []int{1}, instances)

	if len(rec.Removed) != 1 || rec.Removed[0].ID != "b" {
		t.Fatalf("removed = %+v, want just b", rec.Removed)
	}
	if len(rec.Detached) != 0 || len(rec.Skips) != 0 {
		t.Errorf("untouched removal should not detach or skip, got %d/%d", len(rec.Detached), len(rec.Skips))
	}
}

func TestReconcileDetachesEdited(t *testing.T) {
	edited := instance("b", "t1", "2026-01-20", "Exercise")
	edited.Points = map[string]int{"c1": 3}

	rec := Reconcile("t1", []int{1, 2}, []int{1}, []model.TaskInstance{edited})

	if len(rec.Removed) != 0 {
		t.Fatalf("edited instance must not be removed")
	}
	if len(rec.Detached) != 1 {
		t.Fatalf("detached = %d, want 1", len(rec.Detached))
	}
	if rec.Detached[0].TemplateID != nil {
		t.Error("detached instance should have nil template id")
	}
	if len(rec.Skips) != 1 || rec.Skips[0].TemplateID != "t1" || rec.Skips[0].DayKey != "2026-01-20" {
		t.Errorf("skips = %+v, want one for t1/2026-01-20", rec.Skips)
	}
}

func TestReconcileRenameCountsAsEdit(t *testing.T) {
	renamed := instance("b", "t1", "2026-01-20", "Exercise")
	renamed.Name = "Morning run"

	rec := Reconcile("t1", []int{2}, nil, []model.TaskInstance{renamed})

	if len(rec.Detached) != 1 || len(rec.Removed) != 0 {
		t.Fatalf("renamed instance should detach, got removed=%d detached=%d", len(rec.Removed), len(rec.Detached))
	}
}

func TestReconcileNoWeekdaysRemoved(t *testing.T) {
	instances := []model.TaskInstance{instance("a", "t1", "2026-01-19", "Exercise")}

	// Growing or reordering the pattern removes nothing.
	rec := Reconcile("t1", []int{1}, []int{1, 3, 5}, instances)
	if len(rec.Removed)+len(rec.Detached)+len(rec.Skips) != 0 {
		t.Errorf("growing pattern should be a no-op, got %+v", rec)
	}
}

func TestReconcileIgnoresOtherTemplatesAndOneOffs(t *testing.T) {
	instances := []model.TaskInstance{
		instance("a", "t2", "2026-01-20", "Dishes"),    // other template
		instance("b", "", "2026-01-20", "Water plant"), // one-off
		instance("c", "t1", "2026-01-20", "Exercise"),  // target
	}

	rec := Reconcile("t1", []int{2}, nil, instances)

	if len(rec.Removed) != 1 || rec.Removed[0].ID != "c" {
		t.Fatalf("removed = %+v, want just c", rec.Removed)
	}
}

func TestDetach(t *testing.T) {
	inst := instance("a", "t1", "2026-01-20", "Exercise")

	detached, skip := Detach(inst)
	if detached.TemplateID != nil {
		t.Error("detached instance should have nil template id")
	}
	if skip == nil || skip.TemplateID != "t1" || skip.DayKey != "2026-01-20" {
		t.Errorf("skip = %+v, want t1/2026-01-20", skip)
	}

	oneOff := instance("b", "", "2026-01-20", "Water plants")
	if _, skip := Detach(oneOff); skip != nil {
		t.Error("detaching a one-off should yield no skip record")
	}
}

func TestSkipForDelete(t *testing.T) {
	inst := instance("a", "t1", "2026-01-20", "Exercise")
	skip := SkipForDelete(inst)
	if skip == nil || skip.TemplateID != "t1" || skip.DayKey != "2026-01-20" {
		t.Errorf("skip = %+v, want t1/2026-01-20", skip)
	}

	if SkipForDelete(instance("b", "", "2026-01-20", "Water plants")) != nil {
		t.Error("deleting a one-off needs no skip record")
	}
}

func TestDetachThenReseedDoesNotResurrect(t *testing.T) {
	tmpl := model.RecurringTemplate{ID: "t1", Name: "Exercise", RepeatDays: []int{0, 1, 2, 3, 4, 5, 6}}
	res := Seed("ch1", week, []model.RecurringTemplate{tmpl}, nil, nil, nil)

	detached, skip := Detach(res.Created[2])
	remaining := append([]model.TaskInstance{detached}, res.Created[:2]...)
	remaining = append(remaining, res.Created[3:]...)

	again := Seed("ch1", week, []model.RecurringTemplate{tmpl}, remaining, []model.SkipRecord{*skip}, nil)
	if len(again.Created) != 0 {
		t.Fatalf("re-seed after detach created %d instances, want 0", len(again.Created))
	}
}
