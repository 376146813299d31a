package handlers

import (
	"net/http"
	"time"

	"github.com/yosoku/stats-engine/internal/logic"
	"github.com/yosoku/stats-engine/internal/models"
)

// JobRateLimit rejects on-demand job requests over the configured rate.
func (h *Handler) JobRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.jobLimiter.Allow() {
			h.errorResponse(w, http.StatusTooManyRequests, "Job rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RunRecompute handles POST /api/v1/jobs/recompute
// @Summary Recompute User Windows
// @Description Rebuilds every user's 7d/30d/all windows from daily buckets
// @Tags Jobs
// @Produce json
// @Success 200 {object} models.JobResponse "Result"
// @Failure 429 {object} map[string]string "Rate limited"
// @Router /jobs/recompute [post]
func (h *Handler) RunRecompute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	n, err := h.userStats.RecomputeAllUsersDaily(r.Context(), h.now())
	if err != nil {
		h.jobError(w, "recompute", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, models.JobResponse{Job: "recompute", Count: n, DurationMs: time.Since(start).Milliseconds()})
}

// RunLeaderboards handles POST /api/v1/jobs/leaderboards
// @Summary Rebuild Window Leaderboards
// @Tags Jobs
// @Produce json
// @Success 200 {object} models.JobResponse "Result"
// @Failure 429 {object} map[string]string "Rate limited"
// @Router /jobs/leaderboards [post]
func (h *Handler) RunLeaderboards(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	n, err := h.ranking.RebuildWindowLeaderboards(r.Context(), h.now())
	if err != nil {
		h.jobError(w, "leaderboards", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, models.JobResponse{Job: "leaderboards", Count: n, DurationMs: time.Since(start).Milliseconds()})
}

// RunMonthly handles POST /api/v1/jobs/monthly
// @Summary Rebuild Monthly Classification
// @Tags Jobs
// @Produce json
// @Param month query string false "Month (YYYY-MM), default previous month"
// @Success 200 {object} models.JobResponse "Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 429 {object} map[string]string "Rate limited"
// @Router /jobs/monthly [post]
func (h *Handler) RunMonthly(w http.ResponseWriter, r *http.Request) {
	month := models.PreviousMonth(h.now())
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := time.ParseInLocation("2006-01", m, models.JST)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}

	start := time.Now()
	n, err := h.ranking.RebuildMonthly(r.Context(), month)
	if err != nil {
		h.jobError(w, "monthly", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, models.JobResponse{
		Job:        "monthly",
		Count:      n,
		BoardID:    models.BoardMonthly + "_" + models.MonthKey(month) + "_" + logic.MetricWinRate,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// RunCalendar handles POST /api/v1/jobs/calendar
// @Summary Rebuild Calendar Leaderboard
// @Description Ranks the previous ISO week or calendar month by units
// @Tags Jobs
// @Produce json
// @Param period query string true "weekly or monthly"
// @Success 200 {object} models.JobResponse "Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 429 {object} map[string]string "Rate limited"
// @Router /jobs/calendar [post]
func (h *Handler) RunCalendar(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period != logic.PeriodWeekly && period != logic.PeriodMonthly {
		h.errorResponse(w, http.StatusBadRequest, "period must be weekly or monthly")
		return
	}

	start := time.Now()
	lb, err := h.ranking.RebuildCalendar(r.Context(), period, h.now())
	if err != nil {
		h.jobError(w, "calendar", err)
		return
	}
	h.jsonResponse(w, http.StatusOK, models.JobResponse{
		Job:        "calendar",
		Count:      len(lb.Entries),
		BoardID:    lb.ID,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

func (h *Handler) jobError(w http.ResponseWriter, job string, err error) {
	h.logger.Errorw("On-demand job failed", "job", job, "error", err)
	h.errorResponse(w, http.StatusInternalServerError, "Job failed")
}
