package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-tournament/middleware"
	"github.com/Dosada05/chess-tournament/services"
)

// UserHandler управляет учётными записями операторов. Все маршруты только для admin.
type UserHandler struct {
	userService services.UserService
	errs        *ErrorResponder
}

func NewUserHandler(userService services.UserService, errs *ErrorResponder) *UserHandler {
	return &UserHandler{userService: userService, errs: errs}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"users": users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"user": user})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateUserInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	user, err := h.userService.CreateUser(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"user": user})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateUserInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	user, err := h.userService.UpdateUser(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"user": user})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		h.errs.unauthorized(w, r, "authentication required")
		return
	}
	if err := h.userService.DeleteUser(r.Context(), actorID, id); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
