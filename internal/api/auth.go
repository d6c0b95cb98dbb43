package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/models"
)

// SignUp handles POST /api/auth/signup.
//
//	@Summary		Create an account and sign it in
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignUpRequest	true	"New account"
//	@Success		201		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/auth/signup [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	u, token, err := h.ids.SignUp(req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("an account with this email already exists"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{User: *u, Token: token})
}

// SignIn handles POST /api/auth/signin.
//
//	@Summary		Sign in with email and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SignInRequest	true	"Credentials"
//	@Success		200		{object}	SessionResponse
//	@Failure		401		{object}	errResponse
//	@Router			/auth/signin [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	u, token, err := h.ids.SignIn(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidPassword) {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid email or password"))
			return
		}
		slog.Error("sign in failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: *u, Token: token})
}

// SignOut handles POST /api/auth/signout.
//
//	@Summary		Sign out the current identity
//	@Tags			auth
//	@Success		204	"Signed out"
//	@Security		BearerAuth
//	@Router			/auth/signout [post]
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.ids.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
//
//	@Summary		Return the signed-in identity
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	models.User
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u := h.user(w)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateMe handles PATCH /api/auth/me.
//
//	@Summary		Update the signed-in identity's profile
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateProfileRequest	true	"Fields to change"
//	@Success		200		{object}	models.User
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/auth/me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	if h.user(w) == nil {
		return
	}
	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	u, err := h.ids.UpdateProfile(models.UserPatch{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, errorBody("not signed in"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
