// Package challenge owns the weekly lifecycle: keeping the current week's
// challenge materialized and seeded, and running the one-time completion
// transition once a window has fully elapsed.
package challenge

import (
	"context"
	"log/slog"
	"time"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
	"github.com/matt0223/house-cup-sub001/internal/narrative"
	"github.com/matt0223/house-cup-sub001/internal/score"
	"github.com/matt0223/house-cup-sub001/internal/seed"
	"github.com/matt0223/house-cup-sub001/internal/store"
	"github.com/matt0223/house-cup-sub001/internal/websocket"
)

type Service struct {
	households *store.HouseholdStore
	templates  *store.TemplateStore
	tasks      *store.TaskStore
	challenges *store.ChallengeStore
	hub        *websocket.Hub
	generator  *narrative.Generator
	anchors    *seed.AnchorSlot
	logger     *slog.Logger
}

func NewService(households *store.HouseholdStore, templates *store.TemplateStore, tasks *store.TaskStore, challenges *store.ChallengeStore, hub *websocket.Hub, generator *narrative.Generator, logger *slog.Logger) *Service {
	return &Service{
		households: households,
		templates:  templates,
		tasks:      tasks,
		challenges: challenges,
		hub:        hub,
		generator:  generator,
		anchors:    &seed.AnchorSlot{},
		logger:     logger,
	}
}

// SetAnchor arms a one-shot suppression for the next seeding pass. Called
// by handlers in the same breath as a detach or single-day delete, before
// the skip record is guaranteed visible to readers.
func (s *Service) SetAnchor(a seed.Anchor) {
	s.anchors.Set(a)
}

func (s *Service) broadcast(msg websocket.Message) {
	if s.hub != nil {
		s.hub.Broadcast(msg)
	}
}

// EnsureCurrent returns the challenge for the week window containing
// today, creating it if this is the first touch of the window, and runs a
// seeding pass over it. Safe to call on every request.
func (s *Service) EnsureCurrent(h *model.Household) (*model.Challenge, error) {
	today := daykey.Today(h.Timezone)
	win := daykey.WindowContaining(today, h.WeekStartDay)

	ch, err := s.challenges.GetByStartDay(h.ID, win.Start)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		ch, err = s.challenges.Create(h.ID, win.Start, win.End, h.Prize)
		if err != nil {
			return nil, err
		}
		s.logger.Info("challenge created", "challenge_id", ch.ID, "start", ch.StartDayKey)
		s.broadcast(websocket.NewMessage("challenge", "created", ch.ID, nil))
	}

	if _, err := s.SeedChallenge(h, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// SeedChallenge runs one idempotent seeding pass over the challenge's
// window. The anchor slot is consumed here whether or not it matched.
func (s *Service) SeedChallenge(h *model.Household, ch *model.Challenge) (int, error) {
	templates, err := s.templates.ListByHousehold(h.ID)
	if err != nil {
		return 0, err
	}
	existing, err := s.tasks.ListByChallenge(ch.ID)
	if err != nil {
		return 0, err
	}
	skips, err := s.templates.ListSkipRecords(h.ID)
	if err != nil {
		return 0, err
	}

	anchor := s.anchors.Take()
	days := daykey.Range(ch.StartDayKey, ch.EndDayKey)
	res := seed.Seed(ch.ID, days, templates, existing, skips, anchor)
	if len(res.Created) == 0 {
		return 0, nil
	}

	if err := s.tasks.CreateMany(res.Created); err != nil {
		return 0, err
	}
	s.logger.Info("seeded tasks", "challenge_id", ch.ID, "created", len(res.Created), "skipped", res.Skipped)
	s.broadcast(websocket.NewMessage("task", "seeded", ch.ID, map[string]any{"created": len(res.Created)}))
	return len(res.Created), nil
}

// CompleteElapsed runs the one-time completion transition for every
// challenge of the household whose window has fully passed: score, set
// winner/tie, and kick off the best-effort narrative enhancement.
func (s *Service) CompleteElapsed(h *model.Household) error {
	today := daykey.Today(h.Timezone)
	elapsed, err := s.challenges.ListElapsed(h.ID, today)
	if err != nil {
		return err
	}

	for _, ch := range elapsed {
		tasks, err := s.tasks.ListByChallenge(ch.ID)
		if err != nil {
			return err
		}
		result := score.ChallengeScores(tasks, h.Competitors)

		done, err := s.challenges.Complete(ch.ID, result.WinnerID, result.IsTie)
		if err != nil {
			return err
		}
		if !done {
			continue
		}
		s.logger.Info("challenge completed", "challenge_id", ch.ID, "is_tie", result.IsTie)
		s.broadcast(websocket.NewMessage("challenge", "completed", ch.ID, nil))

		// Best-effort enhancement: one attempt, failures stay silent and
		// the rule-based story remains derivable for display.
		if s.generator != nil && s.generator.Enabled() {
			go s.EnhanceNarrative(h, ch.ID)
		}
	}
	return nil
}

// NarrativeEnabled reports whether the LLM generator is configured.
func (s *Service) NarrativeEnabled() bool {
	return s.generator != nil && s.generator.Enabled()
}

// Story derives the rule-based narrative for a challenge from scratch:
// historical totals and margins are recomputed from stored tasks, never
// from cached summaries.
func (s *Service) Story(h *model.Household, ch *model.Challenge) (narrative.Story, error) {
	in, err := s.narrativeInput(h, ch)
	if err != nil {
		return narrative.Story{}, err
	}
	return narrative.Select(in), nil
}

func (s *Service) narrativeInput(h *model.Household, ch *model.Challenge) (narrative.Input, error) {
	tasks, err := s.tasks.ListByChallenge(ch.ID)
	if err != nil {
		return narrative.Input{}, err
	}

	completed, err := s.challenges.ListCompleted(h.ID)
	if err != nil {
		return narrative.Input{}, err
	}

	var history []model.Challenge
	tasksByChallenge := make(map[string][]model.TaskInstance)
	for _, prior := range completed {
		if prior.ID == ch.ID || prior.StartDayKey >= ch.StartDayKey {
			continue
		}
		priorTasks, err := s.tasks.ListByChallenge(prior.ID)
		if err != nil {
			return narrative.Input{}, err
		}
		history = append(history, prior)
		tasksByChallenge[prior.ID] = priorTasks
	}

	return narrative.Input{
		Challenge:        *ch,
		Tasks:            tasks,
		Competitors:      h.Competitors,
		History:          history,
		TasksByChallenge: tasksByChallenge,
	}, nil
}

// EnhanceNarrative asks the LLM generator for a richer narrative and
// stores it behind the write-once guard. Runs out-of-band; every failure
// path simply returns, leaving the rule-based story in place.
func (s *Service) EnhanceNarrative(h *model.Household, challengeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ch, err := s.challenges.GetByID(challengeID)
	if err != nil || ch == nil {
		return
	}
	if ch.Narrative != nil {
		return
	}

	in, err := s.narrativeInput(h, ch)
	if err != nil {
		s.logger.Warn("narrative input", "challenge_id", challengeID, "error", err)
		return
	}
	story := narrative.Select(in)
	result := score.ChallengeScores(in.Tasks, h.Competitors)

	priorTips, err := s.challenges.PriorInsightTips(h.ID)
	if err != nil {
		s.logger.Warn("prior insight tips", "challenge_id", challengeID, "error", err)
		return
	}

	generated := s.generator.Generate(ctx, *ch, story, result, h.Competitors, priorTips)
	if generated == nil {
		return
	}

	stored, err := s.challenges.SetNarrativeIfAbsent(challengeID, *generated)
	if err != nil {
		s.logger.Warn("store narrative", "challenge_id", challengeID, "error", err)
		return
	}
	if stored {
		s.broadcast(websocket.NewMessage("challenge", "narrated", challengeID, nil))
	}
}
