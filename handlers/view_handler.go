package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/services"
)

// ViewHandler отдаёт производные представления: активные членства, сводку
// турниров, результаты партий. Данные всегда читаются из БД.
type ViewHandler struct {
	viewService services.ViewService
	errs        *ErrorResponder
}

func NewViewHandler(vs services.ViewService, errs *ErrorResponder) *ViewHandler {
	return &ViewHandler{viewService: vs, errs: errs}
}

func (h *ViewHandler) ActiveMemberships(w http.ResponseWriter, r *http.Request) {
	clubID, err := queryInt64(r, "club_id")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	rows, err := h.viewService.ActiveMemberships(r.Context(), clubID)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"active_memberships": rows})
}

func (h *ViewHandler) TournamentDetails(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.TournamentStatus(s)
		if !st.Valid() {
			h.errs.badRequest(w, r, errors.New("invalid status query parameter"))
			return
		}
		status = &st
	}
	rows, err := h.viewService.TournamentDetails(r.Context(), status)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"tournament_details": rows})
}

func (h *ViewHandler) TournamentDetailsByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	row, err := h.viewService.TournamentDetailsByID(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"tournament_details": row})
}

func (h *ViewHandler) MatchResults(w http.ResponseWriter, r *http.Request) {
	var input services.MatchResultsInput
	var err error
	if input.TournamentID, err = queryInt64(r, "tournament_id"); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if input.PlayerID, err = queryInt64(r, "player_id"); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if limit != nil {
		input.Limit = *limit
	}

	rows, err := h.viewService.MatchResults(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"match_results": rows})
}
