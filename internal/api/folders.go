package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/models"
)

// ListFolders handles GET /api/folders.
//
//	@Summary		List the current user's folders
//	@Tags			folders
//	@Produce		json
//	@Success		200	{object}	FolderListResponse
//	@Security		BearerAuth
//	@Router			/folders [get]
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	folders := h.docs.Folders(r.Context())
	if folders == nil {
		folders = []models.Folder{}
	}
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: folders, Total: len(folders)})
}

// CreateFolder handles POST /api/folders.
//
//	@Summary		Create a folder, optionally password protected
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFolderRequest	true	"Folder to create"
//	@Success		201		{object}	models.Folder
//	@Failure		400		{object}	errResponse
//	@Failure		504		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	u := h.user(w)
	if u == nil {
		return
	}
	var req CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	folder, err := h.docs.CreateFolder(r.Context(), u.ID, req.Name, req.IsProtected, req.Password, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, apperr.ErrTimeout) {
			writeJSON(w, http.StatusGatewayTimeout, errorBody("folder creation timed out, please try again"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.publish("folder", "created", folder.ID)
	writeJSON(w, http.StatusCreated, folder)
}

// RenameFolder handles PATCH /api/folders/{id}.
//
//	@Summary		Rename a folder
//	@Tags			folders
//	@Accept			json
//	@Param			id		path	string				true	"Folder id"
//	@Param			body	body	RenameFolderRequest	true	"New name"
//	@Success		204		"Renamed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/{id} [patch]
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	id := chi.URLParam(r, "id")
	var req RenameFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.docs.RenameFolder(r.Context(), id, req.Name); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.publish("folder", "updated", id)
	w.WriteHeader(http.StatusNoContent)
}

// SetProtection handles PUT /api/folders/{id}/protection.
//
//	@Summary		Enable or disable folder password protection
//	@Tags			folders
//	@Accept			json
//	@Param			id		path	string				true	"Folder id"
//	@Param			body	body	ProtectionRequest	true	"New protection state"
//	@Success		204		"Changed"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/{id}/protection [put]
func (h *Handler) SetProtection(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	id := chi.URLParam(r, "id")
	var req ProtectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.docs.SetFolderProtection(r.Context(), id, req.IsProtected, req.Password, req.ConfirmPassword); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.publish("folder", "updated", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFolder handles DELETE /api/folders/{id}.
//
//	@Summary		Delete a folder, unfiling its documents
//	@Tags			folders
//	@Param			id	path	string	true	"Folder id"
//	@Success		204	"Deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/{id} [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.docs.DeleteFolder(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete folder failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("folder", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// Unlock handles POST /api/folders/{id}/unlock. After maxAttempts failed
// challenges the folder stays locked out until the counter resets on
// restart or identity change.
//
//	@Summary		Challenge a protected folder's password for temporary access
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Folder id"
//	@Param			body	body		UnlockRequest	true	"Password"
//	@Success		200		{object}	UnlockResponse
//	@Failure		401		{object}	UnlockResponse
//	@Failure		429		{object}	UnlockResponse
//	@Security		BearerAuth
//	@Router			/folders/{id}/unlock [post]
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	id := chi.URLParam(r, "id")
	var req UnlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	h.attemptsMu.Lock()
	locked := h.attempts[id] >= h.maxAttempts
	h.attemptsMu.Unlock()
	if locked {
		writeJSON(w, http.StatusTooManyRequests, UnlockResponse{
			Message: "Too many failed attempts. Access to this folder is temporarily blocked.",
		})
		return
	}

	res, err := h.docs.VerifyFolderPassword(r.Context(), id, req.Password)
	if err != nil {
		slog.Error("unlock folder failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if !res.Success {
		h.attemptsMu.Lock()
		h.attempts[id]++
		remaining := h.maxAttempts - h.attempts[id]
		h.attemptsMu.Unlock()

		msg := res.Message
		if remaining > 0 {
			msg = fmt.Sprintf("%s %d attempts remaining.", res.Message, remaining)
		} else {
			msg = "Too many failed attempts. Access to this folder is temporarily blocked."
		}
		writeJSON(w, http.StatusUnauthorized, UnlockResponse{Message: msg, AttemptsRemaining: remaining})
		return
	}

	h.attemptsMu.Lock()
	delete(h.attempts, id)
	h.attemptsMu.Unlock()

	h.sessions.Grant(id)
	mins, _ := h.sessions.Remaining(id)
	writeJSON(w, http.StatusOK, UnlockResponse{Success: true, MinutesRemaining: mins})
}

// Access handles GET /api/folders/{id}/access.
//
//	@Summary		Report whether the folder is currently unlocked
//	@Tags			folders
//	@Produce		json
//	@Param			id	path		string	true	"Folder id"
//	@Success		200	{object}	AccessResponse
//	@Security		BearerAuth
//	@Router			/folders/{id}/access [get]
func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	id := chi.URLParam(r, "id")
	mins, ok := h.sessions.Remaining(id)
	writeJSON(w, http.StatusOK, AccessResponse{Granted: ok, MinutesRemaining: mins})
}

// Lock handles POST /api/folders/{id}/lock: explicit early re-lock.
//
//	@Summary		Revoke the folder's unlock grant immediately
//	@Tags			folders
//	@Param			id	path	string	true	"Folder id"
//	@Success		204	"Locked"
//	@Security		BearerAuth
//	@Router			/folders/{id}/lock [post]
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	h.sessions.Revoke(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
