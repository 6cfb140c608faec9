package store

import (
	"testing"

	"github.com/matt0223/house-cup-sub001/internal/model"
)

func setupChallengeTestDB(t *testing.T) (*ChallengeStore, *model.Household) {
	t.Helper()
	hs := setupTestDB(t)
	h := createTestHousehold(t, hs)
	return NewChallengeStore(hs.db), h
}

func TestChallengeCreateAndGet(t *testing.T) {
	cs, h := setupChallengeTestDB(t)

	ch, err := cs.Create(h.ID, "2026-01-18", "2026-01-24", "Movie night")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ch.StartDayKey != "2026-01-18" || ch.EndDayKey != "2026-01-24" {
		t.Errorf("window = %s..%s", ch.StartDayKey, ch.EndDayKey)
	}
	if ch.IsCompleted || ch.IsTie || ch.WinnerID != nil || ch.Narrative != nil {
		t.Error("fresh challenge should be open with no outcome")
	}

	got, err := cs.GetByID(ch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Prize != "Movie night" {
		t.Errorf("got = %+v", got)
	}
}

func TestChallengeCreateDuplicateWindow(t *testing.T) {
	cs, h := setupChallengeTestDB(t)

	first, err := cs.Create(h.ID, "2026-01-18", "2026-01-24", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := cs.Create(h.ID, "2026-01-18", "2026-01-24", "")
	if err != nil {
		t.Fatalf("duplicate create should not error: %v", err)
	}
	if second.ID != first.ID {
		t.Error("same window must resolve to the same challenge")
	}

	all, err := cs.ListByHousehold(h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("challenges = %d, want 1", len(all))
	}
}

func TestChallengeCurrent(t *testing.T) {
	cs, h := setupChallengeTestDB(t)

	if cur, err := cs.Current(h.ID); err != nil || cur != nil {
		t.Fatalf("current before any challenge = %v, %v", cur, err)
	}

	older, err := cs.Create(h.ID, "2026-01-11", "2026-01-17", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	newer, err := cs.Create(h.ID, "2026-01-18", "2026-01-24", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cur, err := cs.Current(h.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.ID != newer.ID {
		t.Error("current should be the latest incomplete challenge")
	}

	if _, err := cs.Complete(newer.ID, nil, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	cur, err = cs.Current(h.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.ID != older.ID {
		t.Error("completing the newest should surface the older incomplete one")
	}
}

func TestChallengeListElapsed(t *testing.T) {
	cs, h := setupChallengeTestDB(t)

	past, err := cs.Create(h.ID, "2026-01-11", "2026-01-17", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := cs.Create(h.ID, "2026-01-18", "2026-01-24", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	elapsed, err := cs.ListElapsed(h.ID, "2026-01-20")
	if err != nil {
		t.Fatalf("list elapsed: %v", err)
	}
	if len(elapsed) != 1 || elapsed[0].ID != past.ID {
		t.Fatalf("elapsed = %+v, want just the past week", elapsed)
	}

	// The week ending today has not fully elapsed.
	elapsed, err = cs.ListElapsed(h.ID, "2026-01-17")
	if err != nil {
		t.Fatalf("list elapsed: %v", err)
	}
	if len(elapsed) != 0 {
		t.Errorf("week should not elapse until the day after its end, got %d", len(elapsed))
	}
}

func TestChallengeCompleteIsOneTime(t *testing.T) {
	cs, h := setupChallengeTestDB(t)
	ch, err := cs.Create(h.ID, "2026-01-11", "2026-01-17", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	winner := h.Competitors[0].ID

	done, err := cs.Complete(ch.ID, &winner, false)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done {
		t.Fatal("first completion should report done")
	}

	again, err := cs.Complete(ch.ID, nil, true)
	if err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if again {
		t.Fatal("second completion must be a no-op")
	}

	got, _ := cs.GetByID(ch.ID)
	if got.WinnerID == nil || *got.WinnerID != winner || got.IsTie {
		t.Errorf("outcome overwritten by the no-op: %+v", got)
	}
	if !got.IsCompleted {
		t.Error("challenge should be completed")
	}
}

func TestSetNarrativeIfAbsent(t *testing.T) {
	cs, h := setupChallengeTestDB(t)
	ch, err := cs.Create(h.ID, "2026-01-11", "2026-01-17", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := model.Narrative{Headline: "A close one", Body: "Decided by a point.", InsightTip: "Batch the laundry."}
	stored, err := cs.SetNarrativeIfAbsent(ch.ID, first)
	if err != nil {
		t.Fatalf("set narrative: %v", err)
	}
	if !stored {
		t.Fatal("first write should land")
	}

	second := model.Narrative{Headline: "Overwrite attempt", Body: "Should not stick."}
	stored, err = cs.SetNarrativeIfAbsent(ch.ID, second)
	if err != nil {
		t.Fatalf("second set: %v", err)
	}
	if stored {
		t.Fatal("second write must be rejected")
	}

	got, _ := cs.GetByID(ch.ID)
	if got.Narrative == nil || got.Narrative.Headline != "A close one" {
		t.Errorf("narrative = %+v, want the first write", got.Narrative)
	}
}

func TestPriorInsightTips(t *testing.T) {
	cs, h := setupChallengeTestDB(t)

	ch1, _ := cs.Create(h.ID, "2026-01-04", "2026-01-10", "")
	ch2, _ := cs.Create(h.ID, "2026-01-11", "2026-01-17", "")
	if _, err := cs.SetNarrativeIfAbsent(ch1.ID, model.Narrative{Headline: "h", Body: "b", InsightTip: "Batch laundry."}); err != nil {
		t.Fatalf("set narrative: %v", err)
	}
	if _, err := cs.SetNarrativeIfAbsent(ch2.ID, model.Narrative{Headline: "h", Body: "b"}); err != nil {
		t.Fatalf("set narrative: %v", err)
	}

	tips, err := cs.PriorInsightTips(h.ID)
	if err != nil {
		t.Fatalf("prior tips: %v", err)
	}
	if len(tips) != 1 || tips[0] != "Batch laundry." {
		t.Errorf("tips = %v, want just the non-empty one", tips)
	}
}

func TestListCompleted(t *testing.T) {
	cs, h := setupChallengeTestDB(t)

	ch1, _ := cs.Create(h.ID, "2026-01-04", "2026-01-10", "")
	if _, err := cs.Create(h.ID, "2026-01-11", "2026-01-17", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := cs.Complete(ch1.ID, nil, true); err != nil {
		t.Fatalf("complete: %v", err)
	}

	completed, err := cs.ListCompleted(h.ID)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != ch1.ID {
		t.Errorf("completed = %+v", completed)
	}
}
