package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api/v1 subtree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Score feed and ticket ingest
	r.Put("/games/{id}", h.PutGame)
	r.Post("/games/{id}/writes", h.PostGameWrite)
	r.Post("/games/{id}/finalize", h.FinalizeGame)
	r.Put("/teams/{id}", h.PutTeam)
	r.Get("/teams/{id}", h.GetTeam)
	r.Post("/tickets", h.PostTickets)
	r.Get("/tickets/{id}", h.GetTicket)

	// Read side
	r.Get("/users/{uid}/stats", h.GetUserStats)
	r.Get("/users/{uid}/monthly/{month}", h.GetUserMonthly)
	r.Get("/users/{uid}/history", h.GetUserHistory)
	r.Get("/leaderboards/{id}", h.GetLeaderboard)

	r.Route("/jobs", func(r chi.Router) {
		r.Use(h.JobRateLimit)
		r.Post("/recompute", h.RunRecompute)
		r.Post("/leaderboards", h.RunLeaderboards)
		r.Post("/monthly", h.RunMonthly)
		r.Post("/calendar", h.RunCalendar)
	})

	return r
}
