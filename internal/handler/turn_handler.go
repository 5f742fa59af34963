package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/freeeve/second-dawn/internal/auth"
	"github.com/freeeve/second-dawn/internal/service"
)

// TurnHandler handles action submission and the action log.
type TurnHandler struct {
	turnSvc  *service.TurnService
	phaseSvc *service.PhaseService
}

// NewTurnHandler creates a TurnHandler.
func NewTurnHandler(turnSvc *service.TurnService, phaseSvc *service.PhaseService) *TurnHandler {
	return &TurnHandler{turnSvc: turnSvc, phaseSvc: phaseSvc}
}

// SubmitAction handles POST /api/v1/games/{id}/actions
func (h *TurnHandler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	action, err := h.turnSvc.SubmitAction(r.Context(), gameID, userID, req.Type, req.Payload)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrGameNotActive) || errors.Is(err, service.ErrWrongPhase) ||
			errors.Is(err, service.ErrNotYourTurn) || errors.Is(err, service.ErrAlreadyPassed) {
			status = http.StatusConflict
		} else if errors.Is(err, service.ErrInvalidAction) || service.IsEffectError(err) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

// ListActions handles GET /api/v1/games/{id}/actions
func (h *TurnHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	round := -1
	if q := r.URL.Query().Get("round"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid round parameter")
			return
		}
		round = n
	}

	actions, err := h.turnSvc.ListActions(r.Context(), gameID, round)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if actions == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

// AdvancePhase handles POST /api/v1/games/{id}/phase/advance
func (h *TurnHandler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.phaseSvc.AdvancePhase(r.Context(), gameID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotHost) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrWrongPhase) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "advanced"})
}
