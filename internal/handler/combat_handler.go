package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/freeeve/second-dawn/internal/auth"
	"github.com/freeeve/second-dawn/internal/service"
)

// CombatHandler handles retreat declarations and combat reports.
type CombatHandler struct {
	combatSvc *service.CombatService
}

// NewCombatHandler creates a CombatHandler.
func NewCombatHandler(combatSvc *service.CombatService) *CombatHandler {
	return &CombatHandler{combatSvc: combatSvc}
}

// RetreatShip handles POST /api/v1/games/{id}/retreats
func (h *CombatHandler) RetreatShip(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		ShipID  string `json:"ship_id"`
		ToHexID string `json:"to_hex_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ShipID == "" || req.ToHexID == "" {
		writeError(w, http.StatusBadRequest, "ship_id and to_hex_id are required")
		return
	}

	if err := h.combatSvc.RetreatShip(r.Context(), gameID, userID, req.ShipID, req.ToHexID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) || errors.Is(err, service.ErrShipNotFound) || errors.Is(err, service.ErrHexNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotInGame) || errors.Is(err, service.ErrNotYourShip) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrGameNotActive) || errors.Is(err, service.ErrWrongPhase) {
			status = http.StatusConflict
		} else if errors.Is(err, service.ErrInvalidRetreat) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retreated"})
}

// ListReports handles GET /api/v1/games/{id}/combat-reports
func (h *CombatHandler) ListReports(w http.ResponseWriter, r *http.Request) {
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

	reports, err := h.combatSvc.Reports(r.Context(), gameID, round)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, reports)
}
