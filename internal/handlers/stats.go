package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yosoku/stats-engine/internal/models"
)

// GetUserStats handles GET /api/v1/users/{uid}/stats
// @Summary User Stats Summary
// @Description 7d, 30d and all-time windows plus the current and best streak
// @Tags Users
// @Produce json
// @Param uid path string true "User ID"
// @Success 200 {object} models.UserSummary "Summary"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /users/{uid}/stats [get]
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	summary, err := h.store.GetSummary(r.Context(), uid)
	if err != nil {
		h.storeError(w, err, "user stats")
		return
	}
	h.jsonResponse(w, http.StatusOK, summary)
}

// GetUserMonthly handles GET /api/v1/users/{uid}/monthly/{month}
// @Summary Monthly Classification
// @Description Radar, percentiles and forecaster type for a calendar month
// @Tags Users
// @Produce json
// @Param uid path string true "User ID"
// @Param month path string true "Month (YYYY-MM)"
// @Success 200 {object} models.MonthlyUserStats "Monthly stats"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /users/{uid}/monthly/{month} [get]
func (h *Handler) GetUserMonthly(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	month := chi.URLParam(r, "month")
	if _, err := time.Parse("2006-01", month); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	stats, err := h.store.GetMonthly(r.Context(), models.MonthlyKey(uid, month))
	if err != nil {
		h.storeError(w, err, "monthly stats")
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}

// GetUserHistory handles GET /api/v1/users/{uid}/history
// @Summary Settlement History
// @Description Archived settlements of a user, newest first
// @Tags Users
// @Produce json
// @Param uid path string true "User ID"
// @Param limit query int false "Limit" default(50)
// @Success 200 {object} models.HistoryResponse "History"
// @Failure 503 {object} map[string]string "Archive not configured"
// @Router /users/{uid}/history [get]
func (h *Handler) GetUserHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "History archive not configured")
		return
	}
	uid := chi.URLParam(r, "uid")

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	entries, err := h.history.GetUserHistory(r.Context(), uid, limit)
	if err != nil {
		h.logger.Errorw("Failed to load history", "uid", uid, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if entries == nil {
		entries = []models.SettlementRecord{}
	}
	h.jsonResponse(w, http.StatusOK, models.HistoryResponse{UID: uid, Entries: entries})
}

// GetLeaderboard handles GET /api/v1/leaderboards/{id}
// @Summary Get Leaderboard
// @Description Window boards ({7d,30d,all}_{win_rate,units,brier}), calendar boards (weekly_YYYY-Www, monthly_YYYY-MM) and monthly_YYYY-MM_win_rate
// @Tags Leaderboards
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {object} models.Leaderboard "Leaderboard"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /leaderboards/{id} [get]
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.store.GetLeaderboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err, "leaderboard")
		return
	}
	h.jsonResponse(w, http.StatusOK, lb)
}
