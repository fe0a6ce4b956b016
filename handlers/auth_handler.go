package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/services"
)

type AuthHandler struct {
	authService services.AuthService
	errs        *ErrorResponder
}

func NewAuthHandler(authService services.AuthService, errs *ErrorResponder) *AuthHandler {
	return &AuthHandler{authService: authService, errs: errs}
}

// Login godoc
// @Summary Вход оператора (admin / arbiter)
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Email и пароль"
// @Success 200 {object} map[string]interface{} "token и user"
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string "Неверный email или пароль"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		h.errs.badRequest(w, r, errors.New("email and password are required"))
		return
	}

	user, token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}

	h.errs.respond(w, r, http.StatusOK, jsonResponse{"token": token, "user": user})
}
