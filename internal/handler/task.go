package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matt0223/house-cup-sub001/internal/challenge"
	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
	"github.com/matt0223/house-cup-sub001/internal/seed"
	"github.com/matt0223/house-cup-sub001/internal/store"
	"github.com/matt0223/house-cup-sub001/internal/websocket"
)

type TaskHandler struct {
	households *store.HouseholdStore
	tasks      *store.TaskStore
	templates  *store.TemplateStore
	challenges *store.ChallengeStore
	svc        *challenge.Service
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewTaskHandler(households *store.HouseholdStore, tasks *store.TaskStore, templates *store.TemplateStore, challenges *store.ChallengeStore, svc *challenge.Service, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		households: households,
		tasks:      tasks,
		templates:  templates,
		challenges: challenges,
		svc:        svc,
		hub:        hub,
		logger:     logger,
	}
}

func (h *TaskHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Create adds a one-off task to a challenge day. One-offs have no
// template link and no original name, so they are never reconciled or
// re-seeded.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChallengeID string `json:"challenge_id"`
		DayKey      string `json:"day_key"`
		Name        string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	day, err := daykey.Parse(req.DayKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "day_key must be yyyy-MM-dd")
		return
	}

	ch, err := h.challenges.GetByID(req.ChallengeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return
	}
	if ch == nil {
		writeError(w, http.StatusBadRequest, "challenge not found")
		return
	}
	if day < ch.StartDayKey || day > ch.EndDayKey {
		writeError(w, http.StatusBadRequest, "day_key outside challenge window")
		return
	}

	existing, err := h.tasks.ListByChallenge(ch.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	order := 0
	for _, inst := range existing {
		if inst.DayKey != day {
			continue
		}
		if inst.SortOrder != nil && *inst.SortOrder+1 > order {
			order = *inst.SortOrder + 1
		} else if inst.SortOrder == nil && order < 1 {
			order = 1
		}
	}

	now := time.Now().UTC()
	inst := model.TaskInstance{
		ID:          uuid.NewString(),
		ChallengeID: ch.ID,
		DayKey:      day,
		Name:        req.Name,
		Points:      map[string]int{},
		SortOrder:   &order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.tasks.Create(inst); err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.broadcast(websocket.NewMessage("task", "created", inst.ID, nil))
	writeJSON(w, http.StatusCreated, inst)
}

// Rename changes a task's display name. For templated instances the
// original name stays behind, which is what marks the instance as
// locally edited.
func (h *TaskHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.tasks.Rename(id, req.Name); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rename task")
		return
	}

	h.broadcast(websocket.NewMessage("task", "renamed", id, nil))
	updated, _ := h.tasks.GetByID(id)
	writeJSON(w, http.StatusOK, updated)
}

// SetPoints logs one competitor's score (0-3) on a task.
func (h *TaskHandler) SetPoints(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req struct {
		CompetitorID string `json:"competitor_id"`
		Points       int    `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Points < 0 || req.Points > model.MaxTaskPoints {
		writeError(w, http.StatusBadRequest, "points must be 0-3")
		return
	}

	competitor, err := h.households.GetCompetitor(req.CompetitorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check competitor")
		return
	}
	if competitor == nil {
		writeError(w, http.StatusBadRequest, "competitor not found")
		return
	}

	if err := h.tasks.SetPoints(id, req.CompetitorID, req.Points); err != nil {
		h.logger.Error("set points", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set points")
		return
	}

	h.broadcast(websocket.NewMessage("task", "scored", id, map[string]any{
		"competitor_id": req.CompetitorID,
		"points":        req.Points,
	}))
	updated, _ := h.tasks.GetByID(id)
	writeJSON(w, http.StatusOK, updated)
}

// Detach converts a templated instance into a permanent one-off ("edit
// this day only"). The skip record plus the seeding anchor guarantee the
// slot cannot re-seed, even before the skip record is re-read.
func (h *TaskHandler) Detach(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	detached, skip := seed.Detach(*existing)
	if skip != nil {
		if err := h.templates.CreateSkipRecord(*skip); err != nil {
			h.logger.Error("create skip record", "task_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to record skip")
			return
		}
		h.svc.SetAnchor(seed.Anchor{TemplateID: skip.TemplateID, Day: daykey.Key(skip.DayKey)})
		if err := h.tasks.Detach(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to detach task")
			return
		}
	}

	h.broadcast(websocket.NewMessage("task", "detached", id, nil))
	writeJSON(w, http.StatusOK, detached)
}

// Delete removes a single day's task. Templated instances leave a skip
// record behind so re-seeding cannot resurrect the slot; one-offs just
// go away.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if skip := seed.SkipForDelete(*existing); skip != nil {
		if err := h.templates.CreateSkipRecord(*skip); err != nil {
			h.logger.Error("create skip record", "task_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to record skip")
			return
		}
		h.svc.SetAnchor(seed.Anchor{TemplateID: skip.TemplateID, Day: daykey.Key(skip.DayKey)})
	}

	if err := h.tasks.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.broadcast(websocket.NewMessage("task", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
