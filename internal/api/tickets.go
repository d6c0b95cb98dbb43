package api

import (
	"log/slog"
	"net/http"

	"github.com/docflowapp/docflow/internal/models"
)

// CreateTicket handles POST /api/tickets.
//
//	@Summary		File a support ticket
//	@Tags			tickets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateTicketRequest	true	"Ticket"
//	@Success		201		{object}	models.HelpTicket
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tickets [post]
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	u := h.user(w)
	if u == nil {
		return
	}
	var req CreateTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	t, err := h.desk.CreateTicket(r.Context(), u.ID, req.Subject, req.Description)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.publish("ticket", "created", t.ID)
	writeJSON(w, http.StatusCreated, t)
}

// ListTickets handles GET /api/tickets.
//
//	@Summary		List the current user's tickets, newest first
//	@Tags			tickets
//	@Produce		json
//	@Success		200	{array}	models.HelpTicket
//	@Security		BearerAuth
//	@Router			/tickets [get]
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	u := h.user(w)
	if u == nil {
		return
	}
	tickets, err := h.desk.UserTickets(r.Context(), u.ID)
	if err != nil {
		slog.Error("list tickets failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if tickets == nil {
		tickets = []models.HelpTicket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}
