package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/matt0223/house-cup-sub001/internal/challenge"
	"github.com/matt0223/house-cup-sub001/internal/model"
	"github.com/matt0223/house-cup-sub001/internal/store"
	"github.com/matt0223/house-cup-sub001/internal/websocket"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	svc        *challenge.Service
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewHouseholdHandler(households *store.HouseholdStore, svc *challenge.Service, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: households, svc: svc, hub: hub, logger: logger}
}

func (h *HouseholdHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Get returns the household this instance serves.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	household, err := h.households.First()
	if err != nil {
		h.logger.Error("get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not set up yet")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

type householdRequest struct {
	Timezone     string `json:"timezone"`
	WeekStartDay int    `json:"week_start_day"`
	Prize        string `json:"prize"`
	Competitors  []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"competitors"`
}

// Create handles onboarding: household settings plus 1-2 competitor slots,
// then materializes and seeds the first week's challenge.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.WeekStartDay < 0 || req.WeekStartDay > 6 {
		writeError(w, http.StatusBadRequest, "week_start_day must be 0-6")
		return
	}
	if len(req.Competitors) < 1 || len(req.Competitors) > 2 {
		writeError(w, http.StatusBadRequest, "need 1-2 competitors")
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			writeError(w, http.StatusBadRequest, "unknown timezone")
			return
		}
	}

	existing, err := h.households.First()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check household")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "household already exists")
		return
	}

	competitors := make([]model.Competitor, 0, len(req.Competitors))
	for _, c := range req.Competitors {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "competitor name is required")
			return
		}
		color := c.Color
		if color == "" {
			color = "#3B82F6"
		}
		competitors = append(competitors, model.Competitor{Name: name, Color: color})
	}

	household, err := h.households.Create(req.Timezone, req.WeekStartDay, req.Prize, competitors)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	if _, err := h.svc.EnsureCurrent(household); err != nil {
		h.logger.Error("seed first challenge", "error", err)
	}

	h.broadcast(websocket.NewMessage("household", "created", household.ID, nil))
	writeJSON(w, http.StatusCreated, household)
}

// UpdateSettings changes timezone, week start, and prize. A changed week
// convention takes effect from the next window; the current challenge is
// re-derived on the following EnsureCurrent pass.
func (h *HouseholdHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	household, err := h.households.First()
	if err != nil || household == nil {
		writeError(w, http.StatusNotFound, "household not set up yet")
		return
	}

	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.WeekStartDay < 0 || req.WeekStartDay > 6 {
		writeError(w, http.StatusBadRequest, "week_start_day must be 0-6")
		return
	}
	if req.Timezone == "" {
		req.Timezone = household.Timezone
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		writeError(w, http.StatusBadRequest, "unknown timezone")
		return
	}

	updated, err := h.households.UpdateSettings(household.ID, req.Timezone, req.WeekStartDay, req.Prize)
	if err != nil {
		h.logger.Error("update household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update household")
		return
	}

	h.broadcast(websocket.NewMessage("household", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// UpdateCompetitor changes a competitor's display name and color.
func (h *HouseholdHandler) UpdateCompetitor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.households.GetCompetitor(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get competitor")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "competitor not found")
		return
	}

	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
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
	if req.Color == "" {
		req.Color = existing.Color
	}

	updated, err := h.households.UpdateCompetitor(id, req.Name, req.Color)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update competitor")
		return
	}

	h.broadcast(websocket.NewMessage("competitor", "updated", id, nil))
	writeJSON(w, http.StatusOK, updated)
}

// LinkCompetitor claims a pending invite slot for a user account. The
// account itself lives with the external auth collaborator; only the
// opaque user id is recorded here.
func (h *HouseholdHandler) LinkCompetitor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.households.GetCompetitor(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get competitor")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "competitor not found")
		return
	}
	if existing.UserID != nil {
		writeError(w, http.StatusConflict, "competitor already linked")
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	updated, err := h.households.LinkCompetitor(id, strings.TrimSpace(req.UserID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to link competitor")
		return
	}

	h.broadcast(websocket.NewMessage("competitor", "linked", id, nil))
	writeJSON(w, http.StatusOK, updated)
}
