package score

import (
	"testing"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
)

var twoCompetitors = []model.Competitor{
	{ID: "alice", Name: "Alice"},
	{ID: "bob", Name: "Bob"},
}

func task(day string, points map[string]int) model.TaskInstance {
	return model.TaskInstance{DayKey: daykey.Key(day), Points: points}
}

func TestChallengeScoresWinner(t *testing.T) {
	tasks := []model.TaskInstance{
		task("2026-01-18", map[string]int{"alice": 3, "bob": 1}),
		task("2026-01-19", map[string]int{"alice": 2, "bob": 2}),
	}

	res := ChallengeScores(tasks, twoCompetitors)
	if res.IsTie {
		t.Fatal("should not be a tie")
	}
	if res.WinnerID == nil || *res.WinnerID != "alice" {
		t.Fatalf("winner = %v, want alice", res.WinnerID)
	}
	if len(res.Scores) != 2 {
		t.Fatalf("scores len = %d, want 2", len(res.Scores))
	}
	if res.Scores[0].Total != 5 || res.Scores[1].Total != 3 {
		t.Errorf("totals = %d/%d, want 5/3", res.Scores[0].Total, res.Scores[1].Total)
	}
}

func TestChallengeScoresTie(t *testing.T) {
	tasks := []model.TaskInstance{
		task("2026-01-18", map[string]int{"alice": 3, "bob": 2}),
		task("2026-01-19", map[string]int{"alice": 2, "bob": 3}),
	}

	res := ChallengeScores(tasks, twoCompetitors)
	if !res.IsTie {
		t.Fatal("equal totals should tie")
	}
	if res.WinnerID != nil {
		t.Errorf("tie should have no winner, got %v", *res.WinnerID)
	}
}

func TestChallengeScoresZeroZeroIsTie(t *testing.T) {
	res := ChallengeScores(nil, twoCompetitors)
	if !res.IsTie {
		t.Fatal("0-0 week should be a tie")
	}
	if res.WinnerID != nil {
		t.Error("0-0 tie should have no winner")
	}
}

func TestChallengeScoresSingleCompetitor(t *testing.T) {
	solo := []model.Competitor{{ID: "alice", Name: "Alice"}}

	res := ChallengeScores(nil, solo)
	if res.IsTie {
		t.Fatal("a lone competitor never ties")
	}
	if res.WinnerID == nil || *res.WinnerID != "alice" {
		t.Fatalf("winner = %v, want alice even with zero points", res.WinnerID)
	}
}

func TestChallengeScoresNoCompetitors(t *testing.T) {
	res := ChallengeScores(nil, nil)
	if res.WinnerID != nil || res.IsTie || len(res.Scores) != 0 {
		t.Errorf("zero competitors should yield the zero result, got %+v", res)
	}
}

func TestChallengeScoresOrderIndependent(t *testing.T) {
	tasks := []model.TaskInstance{
		task("2026-01-18", map[string]int{"alice": 1, "bob": 3}),
	}
	reversed := []model.Competitor{twoCompetitors[1], twoCompetitors[0]}

	a := ChallengeScores(tasks, twoCompetitors)
	b := ChallengeScores(tasks, reversed)
	if *a.WinnerID != *b.WinnerID {
		t.Errorf("winner depends on competitor order: %s vs %s", *a.WinnerID, *b.WinnerID)
	}
}

func TestCompetitorTotal(t *testing.T) {
	tasks := []model.TaskInstance{
		task("2026-01-18", map[string]int{"alice": 3}),
		task("2026-01-18", map[string]int{"alice": 1, "bob": 2}),
		task("2026-01-19", map[string]int{"bob": 1}),
	}
	if got := CompetitorTotal(tasks, "alice"); got != 4 {
		t.Errorf("alice total = %d, want 4", got)
	}
	if got := CompetitorTotal(tasks, "nobody"); got != 0 {
		t.Errorf("unknown competitor total = %d, want 0", got)
	}
}

func TestDailyScores(t *testing.T) {
	tasks := []model.TaskInstance{
		task("2026-01-18", map[string]int{"alice": 3}),
		task("2026-01-18", map[string]int{"alice": 2}),
		task("2026-01-19", map[string]int{"alice": 0}),
		task("2026-01-20", map[string]int{"alice": 1}),
	}

	daily := DailyScores(tasks, "alice")
	if daily["2026-01-18"] != 5 {
		t.Errorf("day total = %d, want 5", daily["2026-01-18"])
	}
	if _, ok := daily["2026-01-19"]; ok {
		t.Error("zero-point day should not appear in daily map")
	}
	if daily["2026-01-20"] != 1 {
		t.Errorf("day total = %d, want 1", daily["2026-01-20"])
	}
}

func TestDayCompletion(t *testing.T) {
	tasks := []model.TaskInstance{
		task("2026-01-18", map[string]int{"alice": 3}),
		task("2026-01-18", map[string]int{"alice": 2}),
		task("2026-01-18", map[string]int{}),
	}

	// 5 of 9 possible points rounds to 56%.
	if got := DayCompletion(tasks, "alice"); got != 56 {
		t.Errorf("completion = %d, want 56", got)
	}
	if got := DayCompletion(nil, "alice"); got != 0 {
		t.Errorf("empty completion = %d, want 0", got)
	}
	full := []model.TaskInstance{task("2026-01-18", map[string]int{"alice": 3})}
	if got := DayCompletion(full, "alice"); got != 100 {
		t.Errorf("full completion = %d, want 100", got)
	}
}

func TestMargin(t *testing.T) {
	tasks := []model.TaskInstance{
		task("2026-01-18", map[string]int{"alice": 7, "bob": 3}),
	}
	res := ChallengeScores(tasks, twoCompetitors)
	if got := Margin(res); got != 4 {
		t.Errorf("margin = %d, want 4", got)
	}

	solo := ChallengeScores(tasks, []model.Competitor{{ID: "alice"}})
	if got := Margin(solo); got != 0 {
		t.Errorf("solo margin = %d, want 0", got)
	}
}
