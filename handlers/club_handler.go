package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-tournament/repositories"
	"github.com/Dosada05/chess-tournament/services"
)

type ClubHandler struct {
	clubService       services.ClubService
	membershipService services.MembershipService
	errs              *ErrorResponder
}

func NewClubHandler(clubService services.ClubService, membershipService services.MembershipService, errs *ErrorResponder) *ClubHandler {
	return &ClubHandler{clubService: clubService, membershipService: membershipService, errs: errs}
}

// List godoc
// @Summary Список клубов
// @Tags clubs
// @Produce json
// @Param name query string false "Поиск по названию"
// @Param limit query int false "Лимит" default(20)
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Router /clubs [get]
func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	clubs, err := h.clubService.ListClubs(r.Context(), repositories.ListClubsFilter{
		Name:   r.URL.Query().Get("name"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"clubs": clubs})
}

func (h *ClubHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "clubID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	club, err := h.clubService.GetClub(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"club": club})
}

// Create godoc
// @Summary Создать клуб
// @Tags clubs
// @Accept json
// @Produce json
// @Param club body services.CreateClubInput true "Клуб"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{} "Нарушено ограничение поля"
// @Security BearerAuth
// @Router /clubs [post]
func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateClubInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	club, err := h.clubService.CreateClub(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"club": club})
}

func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "clubID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateClubInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	club, err := h.clubService.UpdateClub(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"club": club})
}

// Delete removes the club with its memberships; tournaments it hosted keep no host.
func (h *ClubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "clubID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if err := h.clubService.DeleteClub(r.Context(), id); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Members обрабатывает GET /clubs/{clubID}/members?active=true
func (h *ClubHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "clubID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	activeOnly, err := queryBool(r, "active")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	members, err := h.membershipService.ListClubMembers(r.Context(), id, activeOnly)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"memberships": members})
}
