package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-tournament/services"
)

type MembershipHandler struct {
	membershipService services.MembershipService
	errs              *ErrorResponder
}

func NewMembershipHandler(membershipService services.MembershipService, errs *ErrorResponder) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService, errs: errs}
}

func (h *MembershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "membershipID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	membership, err := h.membershipService.GetMembership(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"membership": membership})
}

// Update обрабатывает PATCH /memberships/{membershipID}. Перевод в Active
// проверяет правило единственного активного членства.
func (h *MembershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "membershipID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateMembershipInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	membership, err := h.membershipService.UpdateMembership(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"membership": membership})
}

func (h *MembershipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "membershipID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if err := h.membershipService.DeleteMembership(r.Context(), id); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
