package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/blobstore"
	"github.com/docflowapp/docflow/internal/docservice"
	"github.com/docflowapp/docflow/internal/helpdesk"
	"github.com/docflowapp/docflow/internal/identity"
	"github.com/docflowapp/docflow/internal/models"
	"github.com/docflowapp/docflow/internal/session"
	"github.com/docflowapp/docflow/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	ids      *identity.Provider
	docs     *docservice.Service
	desk     *helpdesk.Service
	blobs    blobstore.Provider
	sessions *session.Manager
	broker   *sse.Broker

	maxUpload   int64
	maxAttempts int

	// Failed unlock attempts per folder. Volatile on purpose: the count
	// resets on restart and on identity change. Profile updates notify the
	// same identity and must not reset it.
	attemptsMu  sync.Mutex
	attempts    map[string]int
	attemptsUID string
}

// NewHandler creates a new Handler. The broker may be nil in tests.
func NewHandler(ids *identity.Provider, docs *docservice.Service, desk *helpdesk.Service, blobs blobstore.Provider, sessions *session.Manager, broker *sse.Broker, maxUpload int64, maxAttempts int) *Handler {
	h := &Handler{
		ids:         ids,
		docs:        docs,
		desk:        desk,
		blobs:       blobs,
		sessions:    sessions,
		broker:      broker,
		maxUpload:   maxUpload,
		maxAttempts: maxAttempts,
		attempts:    make(map[string]int),
	}
	ids.OnChange(func(u *models.User) {
		uid := ""
		if u != nil {
			uid = u.ID
		}
		h.attemptsMu.Lock()
		if uid != h.attemptsUID {
			h.attemptsUID = uid
			h.attempts = make(map[string]int)
		}
		h.attemptsMu.Unlock()
	})
	return h
}

// user returns the current identity, writing a 401 when signed out.
func (h *Handler) user(w http.ResponseWriter) *models.User {
	u := h.ids.Current()
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("not signed in"))
	}
	return u
}

func (h *Handler) publish(entity, kind, id string) {
	if h.broker != nil {
		h.broker.PublishChange(entity, kind, id)
	}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents, optionally scoped to a folder or filtered
//	@Tags			documents
//	@Produce		json
//	@Param			folder		query		string	false	"Only documents filed under this folder"
//	@Param			q			query		string	false	"Name/owner substring filter"
//	@Param			category	query		string	false	"Category filter"	Enums(Financial, Legal, HR, Marketing, Operations, Other)
//	@Success		200			{object}	DocumentListResponse
//	@Failure		423			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	u := h.user(w)
	if u == nil {
		return
	}
	q := r.URL.Query()

	var (
		docs []models.Document
		err  error
	)
	switch {
	case q.Get("folder") != "":
		docs, err = h.docs.InFolder(r.Context(), q.Get("folder"))
	case q.Get("q") != "" || q.Get("category") != "":
		docs, err = h.docs.Search(r.Context(), u.ID, q.Get("q"), q.Get("category"))
	default:
		docs, err = h.docs.List(r.Context())
	}
	if err != nil {
		if errors.Is(err, apperr.ErrLocked) {
			writeJSON(w, http.StatusLocked, errorBody("folder is locked"))
			return
		}
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: len(docs)})
}

// UploadDocument handles POST /api/documents (multipart form).
//
//	@Summary		Upload a document with its metadata
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"File content"
//	@Param			name		formData	string	true	"Display name"
//	@Param			category	formData	string	true	"Category"
//	@Param			description	formData	string	false	"Description"
//	@Param			folderId	formData	string	false	"Folder to file under"
//	@Success		201			{object}	models.Document
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	u := h.user(w)
	if u == nil {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file is required"))
		return
	}
	defer file.Close()

	in := docservice.UploadInput{
		Name:        r.FormValue("name"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Owner:       u.DisplayName,
		FileName:    header.Filename,
		FileType:    header.Header.Get("Content-Type"),
		FileSize:    header.Size,
		Reader:      file,
	}
	if fid := r.FormValue("folderId"); fid != "" {
		in.FolderID = &fid
	}

	doc, err := h.docs.Upload(r.Context(), u.ID, in)
	if err != nil {
		slog.Error("upload document failed", slog.String("name", in.Name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.publish("document", "created", doc.ID)
	writeJSON(w, http.StatusCreated, doc)
}

// DocumentStats handles GET /api/documents/stats.
//
//	@Summary		Dashboard statistics over the current user's documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/documents/stats [get]
func (h *Handler) DocumentStats(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	stats, err := h.docs.DocumentStats(r.Context())
	if err != nil {
		slog.Error("document stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UpdateDocument handles PATCH /api/documents/{id}.
//
//	@Summary		Partially update a document (rename, recategorize, re-file)
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Document id"
//	@Param			body	body	DocumentPatchRequest	true	"Fields to change"
//	@Success		204		"Updated"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [patch]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	id := chi.URLParam(r, "id")
	var req DocumentPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	p := models.DocumentPatch{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Unfile {
		p.SetFolderID = true
	} else if req.FolderID != nil {
		p.FolderID = req.FolderID
		p.SetFolderID = true
	}

	if err := h.docs.Update(r.Context(), id, p); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("update document failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.publish("document", "updated", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDocument handles DELETE /api/documents/{id}.
//
//	@Summary		Delete a document and its stored file
//	@Tags			documents
//	@Param			id	path	string	true	"Document id"
//	@Success		204	"Deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.docs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete document failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("document", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
