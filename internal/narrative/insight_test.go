package narrative

import (
	"strings"
	"testing"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
)

func named(day, name string) model.TaskInstance {
	return model.TaskInstance{DayKey: daykey.Key(day), Name: name, Points: map[string]int{}}
}

func withHistory(tasks []model.TaskInstance) Input {
	return Input{
		Challenge:   weekChallenge("ch1"),
		Competitors: competitors,
		Tasks:       tasks,
		History:     []model.Challenge{weekChallenge("h1")},
	}
}

func TestInsightTipFirstWeekSilent(t *testing.T) {
	in := Input{
		Challenge: weekChallenge("ch1"),
		Tasks: []model.TaskInstance{
			named("2026-01-18", "Laundry"),
			named("2026-01-19", "Laundry"),
			named("2026-01-20", "Laundry"),
			named("2026-01-21", "Laundry"),
		},
	}
	if tip := InsightTip(in); tip != "" {
		t.Errorf("first week should have no tip, got %q", tip)
	}
}

func TestInsightTipFrequencyThreshold(t *testing.T) {
	three := withHistory([]model.TaskInstance{
		named("2026-01-18", "Laundry"),
		named("2026-01-19", "Laundry"),
		named("2026-01-20", "Laundry"),
	})
	if tip := InsightTip(three); tip != "" {
		t.Errorf("3 occurrences should not tip, got %q", tip)
	}

	four := withHistory([]model.TaskInstance{
		named("2026-01-18", "Laundry"),
		named("2026-01-19", "Laundry"),
		named("2026-01-20", "Laundry"),
		named("2026-01-21", "Laundry"),
	})
	tip := InsightTip(four)
	if tip == "" {
		t.Fatal("4 occurrences should produce a tip")
	}
	if !strings.Contains(tip, "Laundry") || !strings.Contains(tip, "4 times") {
		t.Errorf("tip = %q", tip)
	}
	if !strings.Contains(tip, "loads") {
		t.Errorf("laundry tip should use the laundry bucket, got %q", tip)
	}
}

func TestInsightTipNormalizesNames(t *testing.T) {
	in := withHistory([]model.TaskInstance{
		named("2026-01-18", "Cook dinner"),
		named("2026-01-19", "cook  dinner"),
		named("2026-01-20", "COOK DINNER"),
		named("2026-01-21", "Cook dinner"),
	})
	tip := InsightTip(in)
	if tip == "" {
		t.Fatal("case and spacing variants should count as one name")
	}
	if !strings.Contains(tip, "Cook dinner") {
		t.Errorf("tip should use the first-seen display name, got %q", tip)
	}
	if !strings.Contains(tip, "prep session") {
		t.Errorf("cook tip should use the meal bucket, got %q", tip)
	}
}

func TestInsightTipBuckets(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Wash dishes", "dishwasher"},
		{"Clean bathroom", "deeper clean"},
		{"Meal prep", "prep session"},
		{"Walk the dog", "batched"},
	}
	for _, tt := range tests {
		in := withHistory([]model.TaskInstance{
			named("2026-01-18", tt.name),
			named("2026-01-19", tt.name),
			named("2026-01-20", tt.name),
			named("2026-01-21", tt.name),
		})
		tip := InsightTip(in)
		if !strings.Contains(tip, tt.want) {
			t.Errorf("tip for %q = %q, want bucket phrase %q", tt.name, tip, tt.want)
		}
	}
}

func TestInsightTipDeterministicTiebreak(t *testing.T) {
	build := func(order []string) Input {
		var tasks []model.TaskInstance
		for i, name := range order {
			day := daykey.Key("2026-01-18").AddDays(i % 7)
			tasks = append(tasks, named(string(day), name))
		}
		return withHistory(tasks)
	}

	names := []string{"Sweep", "Mop", "Sweep", "Mop", "Sweep", "Mop", "Sweep", "Mop"}
	reversed := []string{"Mop", "Sweep", "Mop", "Sweep", "Mop", "Sweep", "Mop", "Sweep"}

	a := InsightTip(build(names))
	b := InsightTip(build(reversed))
	if a != b {
		t.Errorf("tie between equal counts must be deterministic: %q vs %q", a, b)
	}
	if !strings.Contains(a, "Mop") {
		t.Errorf("lexicographic tiebreak should pick mop, got %q", a)
	}
}

func TestSelectAttachesTip(t *testing.T) {
	in := withHistory([]model.TaskInstance{
		named("2026-01-18", "Laundry"),
		named("2026-01-19", "Laundry"),
		named("2026-01-20", "Laundry"),
		named("2026-01-21", "Laundry"),
	})
	in.TasksByChallenge = map[string][]model.TaskInstance{
		"h1": {scored("2026-01-11", map[string]int{"alice": 3})},
	}

	story := Select(in)
	if story.InsightTip == "" {
		t.Error("winning story should carry the insight tip")
	}
}
