package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

const (
	registeredMessage = "user registered successfully"
	loggedInMessage   = "login successful"
	loggedOutMessage  = "logout successful"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, pair, err := h.auth.Register(r.Context(), &models.Registration{
		Email:     req.Email,
		Password:  req.Password,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "user registered", "user_id", user.ID)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newAuthResponse(registeredMessage, user, pair))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, newAuthResponse(loggedInMessage, user, pair))
}

// refresh answers 401 for any token problem so clients know to log in again.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	access, err := h.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrRevoked) {
			h.renderErrorStatus(w, r, http.StatusUnauthorized, err)
			return
		}
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, accessResponse{Access: access})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user := currentUser(r.Context())
	if err := h.auth.Logout(r.Context(), user.ID, req.Refresh); err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, messageResponse{Message: loggedOutMessage})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, newUserResponse(user))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), currentUser(r.Context()).ID, &models.ProfileUpdate{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, newUserResponse(user))
}
