package handler

import (
	"log/slog"
	"net/http"

	"github.com/matt0223/house-cup-sub001/internal/challenge"
	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
	"github.com/matt0223/house-cup-sub001/internal/score"
	"github.com/matt0223/house-cup-sub001/internal/store"
	"github.com/matt0223/house-cup-sub001/internal/websocket"
)

type ChallengeHandler struct {
	households *store.HouseholdStore
	tasks      *store.TaskStore
	challenges *store.ChallengeStore
	svc        *challenge.Service
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewChallengeHandler(households *store.HouseholdStore, tasks *store.TaskStore, challenges *store.ChallengeStore, svc *challenge.Service, hub *websocket.Hub, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		households: households,
		tasks:      tasks,
		challenges: challenges,
		svc:        svc,
		hub:        hub,
		logger:     logger,
	}
}

func (h *ChallengeHandler) household(w http.ResponseWriter) *model.Household {
	household, err := h.households.First()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return nil
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not set up yet")
		return nil
	}
	return household
}

func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	challenges, err := h.challenges.ListByHousehold(household.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list challenges")
		return
	}
	if challenges == nil {
		challenges = []model.Challenge{}
	}
	writeJSON(w, http.StatusOK, challenges)
}

// Current rolls the week forward and returns the live challenge with its
// tasks. Completing elapsed weeks first means a client opening the app on
// Monday morning sees last week finished and this week seeded.
func (h *ChallengeHandler) Current(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	if err := h.svc.CompleteElapsed(household); err != nil {
		h.logger.Error("complete elapsed", "error", err)
	}

	ch, err := h.svc.EnsureCurrent(household)
	if err != nil {
		h.logger.Error("ensure current challenge", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load current challenge")
		return
	}

	tasks, err := h.tasks.ListByChallenge(ch.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.TaskInstance{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"challenge": ch,
		"tasks":     tasks,
	})
}

func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ch, err := h.challenges.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "challenge not found")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	ch, err := h.challenges.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "challenge not found")
		return
	}

	tasks, err := h.tasks.ListByChallenge(ch.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.TaskInstance{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

type competitorBreakdown struct {
	CompetitorID string             `json:"competitor_id"`
	Total        int                `json:"total"`
	Daily        map[daykey.Key]int `json:"daily"`
	Completion   int                `json:"completion"`
}

// Scores computes the live scoreboard: totals, winner-so-far, per-day
// breakdowns, and completion percentages. Everything is derived from the
// task point ledger on each call; nothing is cached.
func (h *ChallengeHandler) Scores(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	ch, err := h.challenges.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "challenge not found")
		return
	}

	tasks, err := h.tasks.ListByChallenge(ch.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	result := score.ChallengeScores(tasks, household.Competitors)
	breakdowns := make([]competitorBreakdown, 0, len(household.Competitors))
	for _, c := range household.Competitors {
		breakdowns = append(breakdowns, competitorBreakdown{
			CompetitorID: c.ID,
			Total:        score.CompetitorTotal(tasks, c.ID),
			Daily:        score.DailyScores(tasks, c.ID),
			Completion:   score.DayCompletion(tasks, c.ID),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":      result,
		"margin":      score.Margin(result),
		"breakdowns":  breakdowns,
		"is_complete": ch.IsCompleted,
	})
}

// Narrative returns the recap for a completed challenge. The stored
// LLM-enhanced narrative wins when present; otherwise the rule-based
// story is derived on the spot so a recap always exists.
func (h *ChallengeHandler) Narrative(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	ch, err := h.challenges.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "challenge not found")
		return
	}
	if !ch.IsCompleted {
		writeError(w, http.StatusConflict, "challenge is not completed yet")
		return
	}

	if ch.Narrative != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"narrative": ch.Narrative,
			"enhanced":  true,
		})
		return
	}

	story, err := h.svc.Story(household, ch)
	if err != nil {
		h.logger.Error("derive story", "challenge_id", ch.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to derive narrative")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"narrative": story.Narrative(),
		"angle":     story.Angle,
		"enhanced":  false,
	})
}

// GenerateNarrative triggers one best-effort enhancement attempt for a
// completed challenge that has no stored narrative yet. The work runs in
// the background; the write-once guard makes repeat triggers harmless.
func (h *ChallengeHandler) GenerateNarrative(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	ch, err := h.challenges.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "challenge not found")
		return
	}
	if !ch.IsCompleted {
		writeError(w, http.StatusConflict, "challenge is not completed yet")
		return
	}
	if ch.Narrative != nil {
		writeError(w, http.StatusConflict, "narrative already stored")
		return
	}
	if !h.svc.NarrativeEnabled() {
		writeError(w, http.StatusServiceUnavailable, "narrative generator is not configured")
		return
	}

	go h.svc.EnhanceNarrative(household, ch.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "generating"})
}
