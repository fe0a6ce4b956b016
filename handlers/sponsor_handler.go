package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/services"
)

type SponsorHandler struct {
	sponsorService services.SponsorService
	errs           *ErrorResponder
}

func NewSponsorHandler(sponsorService services.SponsorService, errs *ErrorResponder) *SponsorHandler {
	return &SponsorHandler{sponsorService: sponsorService, errs: errs}
}

func (h *SponsorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var sponsorType *models.SponsorType
	if s := r.URL.Query().Get("type"); s != "" {
		t := models.SponsorType(s)
		sponsorType = &t
	}
	sponsors, err := h.sponsorService.ListSponsors(r.Context(), sponsorType, limit, offset)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"sponsors": sponsors})
}

func (h *SponsorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "sponsorID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	sponsor, err := h.sponsorService.GetSponsor(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"sponsor": sponsor})
}

func (h *SponsorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.SponsorInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	sponsor, err := h.sponsorService.CreateSponsor(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"sponsor": sponsor})
}

func (h *SponsorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "sponsorID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateSponsorInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	sponsor, err := h.sponsorService.UpdateSponsor(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"sponsor": sponsor})
}

func (h *SponsorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "sponsorID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if err := h.sponsorService.DeleteSponsor(r.Context(), id); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
