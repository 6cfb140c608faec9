package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/matt0223/house-cup-sub001/internal/challenge"
	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
	"github.com/matt0223/house-cup-sub001/internal/seed"
	"github.com/matt0223/house-cup-sub001/internal/store"
	"github.com/matt0223/house-cup-sub001/internal/websocket"
)

type TemplateHandler struct {
	households *store.HouseholdStore
	templates  *store.TemplateStore
	tasks      *store.TaskStore
	challenges *store.ChallengeStore
	svc        *challenge.Service
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewTemplateHandler(households *store.HouseholdStore, templates *store.TemplateStore, tasks *store.TaskStore, challenges *store.ChallengeStore, svc *challenge.Service, hub *websocket.Hub, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		households: households,
		templates:  templates,
		tasks:      tasks,
		challenges: challenges,
		svc:        svc,
		hub:        hub,
		logger:     logger,
	}
}

func (h *TemplateHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *TemplateHandler) household(w http.ResponseWriter) *model.Household {
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

type templateRequest struct {
	Name       string `json:"name"`
	RepeatDays []int  `json:"repeat_days"`
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	templates, err := h.templates.ListByHousehold(household.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []model.RecurringTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// Create adds a recurring pattern and immediately seeds the current week,
// so the new task shows up on matching days without waiting for the next
// scheduler pass.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validWeekdays(req.RepeatDays) {
		writeError(w, http.StatusBadRequest, "repeat_days must be weekday indices 0-6")
		return
	}

	tmpl, err := h.templates.Create(household.ID, req.Name, dedupeWeekdays(req.RepeatDays))
	if err != nil {
		h.logger.Error("create template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}

	if _, err := h.svc.EnsureCurrent(household); err != nil {
		h.logger.Error("seed after template create", "template_id", tmpl.ID, "error", err)
	}

	h.broadcast(websocket.NewMessage("template", "created", tmpl.ID, nil))
	writeJSON(w, http.StatusCreated, tmpl)
}

// Update edits a pattern. Weekdays removed from the pattern are
// reconciled against already-materialized instances (untouched removed,
// edited detached with a skip record) before the current week re-seeds
// any newly added weekdays.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	id := r.PathValue("id")
	existing, err := h.templates.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validWeekdays(req.RepeatDays) {
		writeError(w, http.StatusBadRequest, "repeat_days must be weekday indices 0-6")
		return
	}
	newDays := dedupeWeekdays(req.RepeatDays)

	if err := h.reconcile(household, *existing, newDays); err != nil {
		h.logger.Error("reconcile template", "template_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reconcile template change")
		return
	}

	tmpl, err := h.templates.Update(id, req.Name, newDays)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update template")
		return
	}

	if _, err := h.svc.EnsureCurrent(household); err != nil {
		h.logger.Error("seed after template update", "template_id", id, "error", err)
	}

	h.broadcast(websocket.NewMessage("template", "updated", id, nil))
	writeJSON(w, http.StatusOK, tmpl)
}

// reconcile applies the reconciliation engine's verdict for a shrinking
// pattern to the current challenge's instances.
func (h *TemplateHandler) reconcile(household *model.Household, tmpl model.RecurringTemplate, newDays []int) error {
	current, err := h.challenges.Current(household.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	instances, err := h.tasks.ListByChallenge(current.ID)
	if err != nil {
		return err
	}

	rec := seed.Reconcile(tmpl.ID, tmpl.RepeatDays, newDays, instances)

	removedIDs := make([]string, 0, len(rec.Removed))
	for _, inst := range rec.Removed {
		removedIDs = append(removedIDs, inst.ID)
	}
	if err := h.tasks.DeleteMany(removedIDs); err != nil {
		return err
	}
	for _, inst := range rec.Detached {
		if err := h.tasks.Detach(inst.ID); err != nil {
			return err
		}
	}
	return h.templates.CreateSkipRecords(rec.Skips)
}

// Delete removes the pattern and all of its future undetached instances
// ("delete all future"). Detached instances carry the user's edits and
// stay; skip records die with the template.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	household := h.household(w)
	if household == nil {
		return
	}

	id := r.PathValue("id")
	existing, err := h.templates.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	today := daykey.Today(household.Timezone)
	future, err := h.tasks.ListByTemplateFrom(id, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list template tasks")
		return
	}
	ids := make([]string, 0, len(future))
	for _, inst := range future {
		ids = append(ids, inst.ID)
	}
	if err := h.tasks.DeleteMany(ids); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete template tasks")
		return
	}

	if err := h.templates.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}

	h.broadcast(websocket.NewMessage("template", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
