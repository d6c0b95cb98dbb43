package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted. The sign-up
// and sign-in endpoints stay outside the auth group; everything else
// requires the active session's bearer token. sseHandler, if non-nil, is
// mounted at GET /events inside the auth group.
func NewRouter(h *Handler, isAdmin func(email string) bool, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/signin", h.SignIn)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.ids))

		r.Post("/auth/signout", h.SignOut)
		r.Get("/auth/me", h.Me)
		r.Patch("/auth/me", h.UpdateMe)

		// Documents.
		r.Get("/documents", h.ListDocuments)
		r.Post("/documents", h.UploadDocument)
		r.Get("/documents/stats", h.DocumentStats)
		r.Patch("/documents/{id}", h.UpdateDocument)
		r.Delete("/documents/{id}", h.DeleteDocument)

		// Folders and access grants.
		r.Get("/folders", h.ListFolders)
		r.Post("/folders", h.CreateFolder)
		r.Patch("/folders/{id}", h.RenameFolder)
		r.Delete("/folders/{id}", h.DeleteFolder)
		r.Put("/folders/{id}/protection", h.SetProtection)
		r.Post("/folders/{id}/unlock", h.Unlock)
		r.Post("/folders/{id}/lock", h.Lock)
		r.Get("/folders/{id}/access", h.Access)

		// Help tickets.
		r.Get("/tickets", h.ListTickets)
		r.Post("/tickets", h.CreateTicket)

		// Stored files.
		r.Get("/blobs/*", h.ServeBlob)

		// Admin surface.
		r.Group(func(r chi.Router) {
			r.Use(AdminMiddleware(h.ids, isAdmin))
			r.Get("/admin/users", h.AdminUsers)
			r.Get("/admin/tickets", h.AdminTickets)
			r.Post("/admin/tickets/{id}/resolve", h.ResolveTicket)
			r.Post("/admin/tickets/{id}/close", h.CloseTicket)
		})

		// SSE endpoint (protected by the same auth middleware).
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
