// Package narrative picks the single most interesting qualitative angle
// on a completed week. Detectors run in fixed priority order and the first
// one with something to say wins; an unconditional fallback terminates the
// chain, so "no interesting story" is a valid outcome, never an error.
package narrative

import (
	"fmt"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
	"github.com/matt0223/house-cup-sub001/internal/score"
)

// Angle identifies which detector produced a story.
type Angle string

const (
	AngleRecord       Angle = "record"
	AngleComeback     Angle = "comeback"
	AngleDayDominance Angle = "day_dominance"
	AngleCloseCall    Angle = "close_call"
	AngleBlowout      Angle = "blowout"
	AngleFallback     Angle = "fallback"
)

// Story is one qualitative framing of a completed week. IsFallback marks
// the generic restatement so presentation layers can tone it down.
type Story struct {
	Angle      Angle  `json:"angle"`
	Headline   string `json:"headline"`
	Body       string `json:"body"`
	InsightTip string `json:"insight_tip,omitempty"`
	IsFallback bool   `json:"is_fallback"`
}

// Narrative converts the story to the stored narrative shape.
func (s Story) Narrative() model.Narrative {
	return model.Narrative{Headline: s.Headline, Body: s.Body, InsightTip: s.InsightTip}
}

// Input carries everything the selector consults. Historical totals and
// margins are recomputed from TasksByChallenge on demand; no cached
// denormalized history is trusted.
type Input struct {
	Challenge        model.Challenge
	Tasks            []model.TaskInstance
	Competitors      []model.Competitor
	History          []model.Challenge
	TasksByChallenge map[string][]model.TaskInstance
}

// Select runs the detector chain and attaches the habit insight tip, if
// one applies, to whichever story won.
func Select(in Input) Story {
	detectors := []func(Input) *Story{
		recordBreaker,
		comeback,
		dayDominance,
		marginStory,
	}

	story := fallback(in)
	for _, detect := range detectors {
		if s := detect(in); s != nil {
			story = *s
			break
		}
	}
	if tip := InsightTip(in); tip != "" {
		story.InsightTip = tip
	}
	return story
}

func competitorName(in Input, id string) string {
	for _, c := range in.Competitors {
		if c.ID == id {
			return c.Name
		}
	}
	return "Someone"
}

func combinedTotal(tasks []model.TaskInstance) int {
	total := 0
	for _, t := range tasks {
		for _, p := range t.Points {
			total += p
		}
	}
	return total
}

// recordBreaker fires when this week's combined household total strictly
// beats the best of any prior week.
func recordBreaker(in Input) *Story {
	if len(in.History) == 0 {
		return nil
	}
	current := combinedTotal(in.Tasks)
	best := 0
	for _, ch := range in.History {
		if t := combinedTotal(in.TasksByChallenge[ch.ID]); t > best {
			best = t
		}
	}
	if current <= best {
		return nil
	}
	return &Story{
		Angle:    AngleRecord,
		Headline: "New household record",
		Body: fmt.Sprintf("Together you scored %d points — your best week yet, beating the previous record of %d.",
			current, best),
	}
}

// comeback fires when the eventual winner was strictly behind the
// runner-up at the four-day checkpoint. Needs two competitors and a
// window of at least five days so the checkpoint means something.
func comeback(in Input) *Story {
	if len(in.Competitors) < 2 {
		return nil
	}
	days := daykey.Range(in.Challenge.StartDayKey, in.Challenge.EndDayKey)
	if len(days) < 5 {
		return nil
	}

	result := score.ChallengeScores(in.Tasks, in.Competitors)
	if result.WinnerID == nil {
		return nil
	}
	winnerID := *result.WinnerID
	runnerUpID := ""
	runnerUpTotal := -1
	for _, s := range result.Scores {
		if s.CompetitorID != winnerID && s.Total > runnerUpTotal {
			runnerUpID = s.CompetitorID
			runnerUpTotal = s.Total
		}
	}

	winnerAt, runnerUpAt := 0, 0
	checkpoint := days[:4]
	winnerDaily := score.DailyScores(in.Tasks, winnerID)
	runnerUpDaily := score.DailyScores(in.Tasks, runnerUpID)
	for _, d := range checkpoint {
		winnerAt += winnerDaily[d]
		runnerUpAt += runnerUpDaily[d]
	}
	if winnerAt >= runnerUpAt {
		return nil
	}

	deficit := runnerUpAt - winnerAt
	return &Story{
		Angle:    AngleComeback,
		Headline: "Comeback of the week",
		Body: fmt.Sprintf("%s was %d points down after four days and still took the week from %s.",
			competitorName(in, winnerID), deficit, competitorName(in, runnerUpID)),
	}
}

// dayDominance fires when one day carried at least half of a competitor's
// weekly total and at least 6 points in absolute terms; the floor keeps
// trivial 1-2 point days from reading as "dominant".
func dayDominance(in Input) *Story {
	const minDayPoints = 6

	for _, c := range in.Competitors {
		total := score.CompetitorTotal(in.Tasks, c.ID)
		if total == 0 {
			continue
		}
		daily := score.DailyScores(in.Tasks, c.ID)
		for _, day := range daykey.Range(in.Challenge.StartDayKey, in.Challenge.EndDayKey) {
			pts := daily[day]
			if pts < minDayPoints || pts*2 < total {
				continue
			}
			weekday := day.Time().Weekday().String()
			return &Story{
				Angle:    AngleDayDominance,
				Headline: fmt.Sprintf("%s owned %s", c.Name, weekday),
				Body: fmt.Sprintf("%s earned %d of their %d points on %s alone.",
					c.Name, pts, total, weekday),
			}
		}
	}
	return nil
}

// marginStory compares this week's finishing margin with history: a
// margin at or below the historical minimum (and no more than 5 points)
// is the closest finish yet; a margin at or above the historical maximum
// and well beyond the average is the most dominant week yet.
func marginStory(in Input) *Story {
	if len(in.Competitors) < 2 {
		return nil
	}

	var margins []int
	for _, ch := range in.History {
		tasks, ok := in.TasksByChallenge[ch.ID]
		if !ok {
			continue
		}
		margins = append(margins, score.Margin(score.ChallengeScores(tasks, in.Competitors)))
	}
	if len(margins) == 0 {
		return nil
	}

	minM, maxM, sum := margins[0], margins[0], 0
	for _, m := range margins {
		if m < minM {
			minM = m
		}
		if m > maxM {
			maxM = m
		}
		sum += m
	}
	avg := float64(sum) / float64(len(margins))

	result := score.ChallengeScores(in.Tasks, in.Competitors)
	margin := score.Margin(result)

	if margin <= minM && margin <= 5 {
		if result.IsTie {
			return &Story{
				Angle:    AngleCloseCall,
				Headline: "Dead heat",
				Body:     "All week neck and neck, and it ended dead even. Someone's buying breakfast.",
			}
		}
		return &Story{
			Angle:    AngleCloseCall,
			Headline: "Closest finish yet",
			Body:     fmt.Sprintf("Decided by just %d points — your tightest week so far.", margin),
		}
	}

	if margin >= maxM && float64(margin) > 1.5*avg && len(margins) >= 2 {
		winner := "The winner"
		if result.WinnerID != nil {
			winner = competitorName(in, *result.WinnerID)
		}
		return &Story{
			Angle:    AngleBlowout,
			Headline: "A dominant week",
			Body:     fmt.Sprintf("%s won by %d points — the biggest margin on record.", winner, margin),
		}
	}
	return nil
}

// fallback always succeeds with a neutral restatement of the week.
func fallback(in Input) Story {
	return Story{
		Angle:      AngleFallback,
		Headline:   "Another week in the books",
		Body:       fmt.Sprintf("You logged %d tasks between you this week. Same time next week?", len(in.Tasks)),
		IsFallback: true,
	}
}
