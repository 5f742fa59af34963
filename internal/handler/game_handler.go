package handler

import (
	"errors"
	"net/http"

	"github.com/freeeve/second-dawn/internal/auth"
	"github.com/freeeve/second-dawn/internal/service"
)

// GameHandler handles game lifecycle endpoints.
type GameHandler struct {
	gameSvc *service.GameService
	hub     *Hub
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, hub *Hub) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, hub: hub}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		Name       string `json:"name"`
		MaxPlayers int    `json:"max_players,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), req.Name, userID, req.MaxPlayers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	filter := r.URL.Query().Get("filter")
	games, err := h.gameSvc.ListGames(r.Context(), userID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.gameSvc.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Species string `json:"species,omitempty"`
	}
	// Body is optional: joining without a species picks one at start.
	decodeJSON(r, &req)

	if err := h.gameSvc.JoinGame(r.Context(), gameID, userID, req.Species); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrGameFull) || errors.Is(err, service.ErrGameNotLobby) || errors.Is(err, service.ErrAlreadyJoined) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	game, err := h.gameSvc.StartGame(r.Context(), gameID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotHost) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrNotEnough) || errors.Is(err, service.ErrGameNotLobby) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	h.hub.BroadcastToGame(gameID, WSEvent{
		Type:   EventGameStarted,
		GameID: gameID,
		Data:   map[string]any{"round": game.Round, "phase": game.Phase},
	})

	writeJSON(w, http.StatusOK, game)
}

// CreateInvite handles POST /api/v1/games/{id}/invites
func (h *GameHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	invite, err := h.gameSvc.CreateInvite(r.Context(), gameID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrNotHost) {
			status = http.StatusForbidden
		} else if errors.Is(err, service.ErrGameNotLobby) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

// JoinByInvite handles POST /api/v1/invites/{token}/join
func (h *GameHandler) JoinByInvite(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Species string `json:"species,omitempty"`
	}
	decodeJSON(r, &req)

	game, err := h.gameSvc.JoinByInvite(r.Context(), token, userID, req.Species)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInviteNotFound) || errors.Is(err, service.ErrGameNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, service.ErrGameFull) || errors.Is(err, service.ErrGameNotLobby) || errors.Is(err, service.ErrAlreadyJoined) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// GetScores handles GET /api/v1/games/{id}/scores
func (h *GameHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	scores, err := h.gameSvc.Scores(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
