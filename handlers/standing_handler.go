package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-tournament/services"
)

type StandingHandler struct {
	standingService services.StandingService
	errs            *ErrorResponder
}

func NewStandingHandler(ss services.StandingService, errs *ErrorResponder) *StandingHandler {
	return &StandingHandler{standingService: ss, errs: errs}
}

func (h *StandingHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	standings, err := h.standingService.ListStandings(r.Context(), tournamentID)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"standings": standings})
}

func (h *StandingHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	standing, err := h.standingService.GetStanding(r.Context(), tournamentID, playerID)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"standing": standing})
}

// Update sets tie-breaks, final rank and prize; points come only from results.
func (h *StandingHandler) Update(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateStandingInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	standing, err := h.standingService.UpdateStanding(r.Context(), tournamentID, playerID, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"standing": standing})
}

func (h *StandingHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	standings, err := h.standingService.RecalculateStandings(r.Context(), tournamentID)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"standings": standings})
}
