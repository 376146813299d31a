package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yosoku/stats-engine/internal/models"
	"github.com/yosoku/stats-engine/internal/store"
)

// PutGame handles PUT /api/v1/games/{id}
// @Summary Upsert Game
// @Description Stores a game from the score feed. Engine-owned fields are ignored.
// @Tags Games
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param body body models.Game true "Game"
// @Success 200 {object} logic.FinalizeReport "Finalized in-process"
// @Success 202 {object} map[string]string "Stored"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /games/{id} [put]
func (h *Handler) PutGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var g models.Game
	if err := h.decodeGame(w, r, id, &g); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	g.Market, g.Upset, g.ResolvedHome, g.ResolvedAway, g.FinalizedAt = nil, nil, nil, nil, nil

	var before *models.Game
	if h.emitWrites {
		prev, err := h.store.GetGame(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			h.storeError(w, err, "game")
			return
		}
		before = prev
	}

	if err := h.store.UpsertGame(ctx, g); err != nil {
		h.storeError(w, err, "game")
		return
	}
	if !h.emitWrites {
		h.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "stored", "game_id": id})
		return
	}

	after, err := h.store.GetGame(ctx, id)
	if err != nil {
		h.storeError(w, err, "game")
		return
	}
	report, err := h.finalizer.HandleGameWrite(ctx, models.GameWrite{Before: before, After: after})
	if err != nil {
		h.logger.Errorw("In-process finalization failed", "game", id, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Finalization failed")
		return
	}
	h.jsonResponse(w, http.StatusOK, report)
}

func (h *Handler) decodeGame(w http.ResponseWriter, r *http.Request, id string, g *models.Game) error {
	if err := h.decodeJSON(w, r, g); err != nil {
		return err
	}
	if g.ID != id {
		return errors.New("game id does not match path")
	}
	return nil
}

// PostGameWrite handles POST /api/v1/games/{id}/writes
// @Summary Deliver Game Write
// @Description Runs a before/after game write through the finalizer, as the database trigger does.
// @Tags Games
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param body body models.GameWrite true "Game write"
// @Success 200 {object} logic.FinalizeReport "Report"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Error"
// @Router /games/{id}/writes [post]
func (h *Handler) PostGameWrite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var gw models.GameWrite
	if err := h.decodeJSON(w, r, &gw); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if gw.After.ID != id || (gw.Before != nil && gw.Before.ID != id) {
		h.errorResponse(w, http.StatusBadRequest, "game id does not match path")
		return
	}

	report, err := h.finalizer.HandleGameWrite(r.Context(), gw)
	if err != nil {
		h.logger.Errorw("Finalization failed", "game", id, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Finalization failed")
		return
	}
	h.jsonResponse(w, http.StatusOK, report)
}

// FinalizeGame handles POST /api/v1/games/{id}/finalize
// @Summary Replay Game Finalization
// @Description Re-runs finalization from the stored game. Settled tickets are kept; their stats are re-applied idempotently.
// @Tags Games
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} logic.FinalizeReport "Report"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /games/{id}/finalize [post]
func (h *Handler) FinalizeGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.finalizer.ReplayGame(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "game")
		return
	}
	h.jsonResponse(w, http.StatusOK, report)
}

// PutTeam handles PUT /api/v1/teams/{id}
// @Summary Upsert Team
// @Description Stores team context (rank, wins, conference). Counters and streaks are kept.
// @Tags Games
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param body body models.TeamRequest true "Team"
// @Success 200 {object} models.TeamStats "Team"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /teams/{id} [put]
func (h *Handler) PutTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req models.TeamRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	err := h.store.UpsertTeam(ctx, models.TeamStats{
		TeamID:     id,
		Name:       req.Name,
		ShortName:  req.ShortName,
		Conference: req.Conference,
		Rank:       req.Rank,
		Wins:       req.Wins,
	})
	if err != nil {
		h.storeError(w, err, "team")
		return
	}
	team, err := h.store.GetTeam(ctx, id)
	if err != nil {
		h.storeError(w, err, "team")
		return
	}
	h.jsonResponse(w, http.StatusOK, team)
}

// GetTeam handles GET /api/v1/teams/{id}
// @Summary Get Team
// @Tags Games
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} models.TeamStats "Team"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /teams/{id} [get]
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.store.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err, "team")
		return
	}
	h.jsonResponse(w, http.StatusOK, team)
}
