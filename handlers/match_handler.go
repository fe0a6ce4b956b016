package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/services"
)

type MatchHandler struct {
	matchService services.MatchService
	errs         *ErrorResponder
}

func NewMatchHandler(ms services.MatchService, errs *ErrorResponder) *MatchHandler {
	return &MatchHandler{matchService: ms, errs: errs}
}

// ListByTournament обрабатывает GET /tournaments/{tournamentID}/matches?round=&status=
func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	round, err := queryInt(r, "round")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var status *models.MatchStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.MatchStatus(s)
		if !st.Valid() {
			h.errs.badRequest(w, r, errors.New("invalid status query parameter"))
			return
		}
		status = &st
	}

	matches, err := h.matchService.ListTournamentMatches(r.Context(), tournamentID, round, status)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

// Create godoc
// @Summary Создать партию
// @Tags matches
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param match body services.CreateMatchInput true "Партия"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Белые и чёрные совпадают / время окончания раньше начала / шахматист не найден"
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches [post]
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	match, err := h.matchService.CreateMatch(r.Context(), tournamentID, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"match": match})
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	match, err := h.matchService.UpdateMatch(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if err := h.matchService.DeleteMatch(r.Context(), id); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordResult godoc
// @Summary Записать результат партии
// @Tags matches
// @Description Партия переводится в Completed, таблица турнира пересчитывается, подписчики комнаты турнира получают MATCH_UPDATED и STANDINGS_UPDATED.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param result body services.RecordResultInput true "Результат: 1-0, 0-1 или 1/2-1/2"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/result [post]
func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	match, err := h.matchService.RecordResult(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"match": match})
}
