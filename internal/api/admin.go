package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/models"
)

// AdminUsers handles GET /api/admin/users.
//
//	@Summary		List every registered user
//	@Tags			admin
//	@Produce		json
//	@Success		200	{array}		models.User
//	@Failure		403	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/users [get]
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.desk.AllUsers(r.Context())
	if err != nil {
		slog.Error("admin list users failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// AdminTickets handles GET /api/admin/tickets.
//
//	@Summary		List every ticket across all users
//	@Tags			admin
//	@Produce		json
//	@Success		200	{array}		models.HelpTicket
//	@Failure		403	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/tickets [get]
func (h *Handler) AdminTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.desk.AllTickets(r.Context())
	if err != nil {
		slog.Error("admin list tickets failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if tickets == nil {
		tickets = []models.HelpTicket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// ResolveTicket handles POST /api/admin/tickets/{id}/resolve.
//
//	@Summary		Resolve a ticket with a response
//	@Tags			admin
//	@Accept			json
//	@Param			id		path	string					true	"Ticket id"
//	@Param			body	body	ResolveTicketRequest	true	"Resolution"
//	@Success		204		"Resolved"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/tickets/{id}/resolve [post]
func (h *Handler) ResolveTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ResolveTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.desk.Resolve(r.Context(), id, req.Response); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("resolve ticket failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("ticket", "updated", id)
	w.WriteHeader(http.StatusNoContent)
}

// CloseTicket handles POST /api/admin/tickets/{id}/close.
//
//	@Summary		Close a ticket without a response
//	@Tags			admin
//	@Param			id	path	string	true	"Ticket id"
//	@Success		204	"Closed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/tickets/{id}/close [post]
func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.desk.Close(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("close ticket failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("ticket", "updated", id)
	w.WriteHeader(http.StatusNoContent)
}
