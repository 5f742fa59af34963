package handler

import (
	"net/http"

	"github.com/freeeve/second-dawn/internal/auth"
	"github.com/freeeve/second-dawn/internal/repository"
)

// BoardHandler handles map and resource read endpoints.
type BoardHandler struct {
	gameRepo     repository.GameRepository
	boardRepo    repository.BoardRepository
	resourceRepo repository.ResourceRepository
}

// NewBoardHandler creates a BoardHandler.
func NewBoardHandler(gameRepo repository.GameRepository, boardRepo repository.BoardRepository, resourceRepo repository.ResourceRepository) *BoardHandler {
	return &BoardHandler{gameRepo: gameRepo, boardRepo: boardRepo, resourceRepo: resourceRepo}
}

// GetBoard handles GET /api/v1/games/{id}/board
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	game, err := h.gameRepo.FindByID(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if game == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	tiles, err := h.boardRepo.ListTiles(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ships, err := h.boardRepo.ListShips(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tiles": tiles,
		"ships": ships,
	})
}

// GetMyResources handles GET /api/v1/games/{id}/resources
func (h *BoardHandler) GetMyResources(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	game, err := h.gameRepo.FindByID(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if game == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	playerID := ""
	for _, p := range game.Players {
		if p.UserID == userID {
			playerID = p.ID
			break
		}
	}
	if playerID == "" {
		writeError(w, http.StatusForbidden, "you are not in this game")
		return
	}

	resources, err := h.resourceRepo.GetForPlayer(r.Context(), playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resources == nil {
		writeError(w, http.StatusNotFound, "no resources for player")
		return
	}
	writeJSON(w, http.StatusOK, resources)
}
