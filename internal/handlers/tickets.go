package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yosoku/stats-engine/internal/models"
)

// PostTickets handles POST /api/v1/tickets
// @Summary Ingest Tickets
// @Description Stores up to 500 tickets. Settlement fields are owned by the engine and ignored; settled tickets are not modified.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param body body models.TicketBatchRequest true "Tickets"
// @Success 202 {object} models.TicketBatchResponse "Stored"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /tickets [post]
func (h *Handler) PostTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.TicketBatchRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	stored := 0
	for _, t := range req.Tickets {
		t.Settlement, t.ResultUnit, t.UsedOdds, t.SettledAt = "", 0, 0, nil
		for i := range t.Legs {
			t.Legs[i].Outcome = ""
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = h.now()
		}
		if err := h.store.UpsertTicket(ctx, t); err != nil {
			h.logger.Errorw("Failed to store ticket", "ticket", t.ID, "error", err)
			h.errorResponse(w, http.StatusInternalServerError, "Failed to store tickets")
			return
		}
		stored++
	}
	h.jsonResponse(w, http.StatusAccepted, models.TicketBatchResponse{Stored: stored})
}

// GetTicket handles GET /api/v1/tickets/{id}
// @Summary Get Ticket
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} models.Ticket "Ticket"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /tickets/{id} [get]
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err, "ticket")
		return
	}
	h.jsonResponse(w, http.StatusOK, t)
}
