// Package score turns raw task point ledgers into per-competitor totals,
// winner/tie results, daily breakdowns, and completion ratios. All
// functions are pure reductions that return defined zero values for empty
// input; early and empty states are expected, never errors.
package score

import (
	"math"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
)

// CompetitorTotal sums the competitor's points across the given tasks.
func CompetitorTotal(tasks []model.TaskInstance, competitorID string) int {
	total := 0
	for _, t := range tasks {
		total += t.Points[competitorID]
	}
	return total
}

// Score is one competitor's total for a challenge.
type Score struct {
	CompetitorID string `json:"competitor_id"`
	Total        int    `json:"total"`
}

// Result is the outcome of scoring a challenge. WinnerID is nil when the
// top two totals are equal (including 0-0), with IsTie set.
type Result struct {
	Scores   []Score `json:"scores"`
	WinnerID *string `json:"winner_id,omitempty"`
	IsTie    bool    `json:"is_tie"`
}

// ChallengeScores computes each competitor's total and decides the winner.
// With two or more competitors the highest total wins and a strict tie
// between the top two yields IsTie with no winner. A lone competitor wins
// trivially. Zero competitors returns the zero Result; callers guard.
func ChallengeScores(tasks []model.TaskInstance, competitors []model.Competitor) Result {
	var res Result
	if len(competitors) == 0 {
		return res
	}

	res.Scores = make([]Score, len(competitors))
	for i, c := range competitors {
		res.Scores[i] = Score{CompetitorID: c.ID, Total: CompetitorTotal(tasks, c.ID)}
	}

	if len(competitors) == 1 {
		id := competitors[0].ID
		res.WinnerID = &id
		return res
	}

	top, second := topTwo(res.Scores)
	if top.Total == second.Total {
		res.IsTie = true
		return res
	}
	winnerID := top.CompetitorID
	res.WinnerID = &winnerID
	return res
}

// topTwo returns the highest and second-highest scores. Order of equal
// totals does not matter to callers, which only compare the two values.
func topTwo(scores []Score) (Score, Score) {
	top, second := scores[0], Score{Total: -1}
	for _, s := range scores[1:] {
		switch {
		case s.Total > top.Total:
			second = top
			top = s
		case s.Total > second.Total:
			second = s
		}
	}
	return top, second
}

// DailyScores groups the competitor's points by day.
func DailyScores(tasks []model.TaskInstance, competitorID string) map[daykey.Key]int {
	daily := make(map[daykey.Key]int)
	for _, t := range tasks {
		if p := t.Points[competitorID]; p > 0 {
			daily[t.DayKey] += p
		}
	}
	return daily
}

// DayCompletion returns the competitor's earned share of the maximum
// possible points across the given tasks, as a whole percentage 0..100.
// An empty task list is 0%, not a division error.
func DayCompletion(tasks []model.TaskInstance, competitorID string) int {
	if len(tasks) == 0 {
		return 0
	}
	earned := CompetitorTotal(tasks, competitorID)
	possible := model.MaxTaskPoints * len(tasks)
	return int(math.Round(100 * float64(earned) / float64(possible)))
}

// Margin returns the absolute gap between the top two totals, or 0 when
// fewer than two competitors are scored.
func Margin(res Result) int {
	if len(res.Scores) < 2 {
		return 0
	}
	top, second := topTwo(res.Scores)
	return top.Total - second.Total
}
