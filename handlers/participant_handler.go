package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-tournament/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
	errs               *ErrorResponder
}

func NewParticipantHandler(ps services.ParticipantService, errs *ErrorResponder) *ParticipantHandler {
	return &ParticipantHandler{
		participantService: ps,
		errs:               errs,
	}
}

// List обрабатывает GET /tournaments/{tournamentID}/participants?confirmed=true
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	confirmedOnly, err := queryBool(r, "confirmed")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	participants, err := h.participantService.ListParticipants(r.Context(), tournamentID, confirmedOnly)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"participants": participants})
}

// Register godoc
// @Summary Зарегистрировать шахматиста в турнире
// @Tags participants
// @Description Начальный рейтинг берётся из текущего рейтинга шахматиста.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param participant body services.RegisterParticipantInput true "Заявка"
// @Success 201 {object} map[string]interface{} "Заявка создана"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 409 {object} map[string]interface{} "Турнир завершён / мест нет / шахматист не найден"
// @Failure 422 {object} map[string]interface{} "Уже зарегистрирован"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/participants [post]
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.RegisterParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	participant, err := h.participantService.RegisterPlayer(r.Context(), tournamentID, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"participant": participant})
}

func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournamentID, playerID, ok := h.ids(w, r)
	if !ok {
		return
	}
	participant, err := h.participantService.GetParticipant(r.Context(), tournamentID, playerID)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"participant": participant})
}

func (h *ParticipantHandler) Update(w http.ResponseWriter, r *http.Request) {
	tournamentID, playerID, ok := h.ids(w, r)
	if !ok {
		return
	}
	var input services.UpdateParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	participant, err := h.participantService.UpdateParticipant(r.Context(), tournamentID, playerID, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"participant": participant})
}

func (h *ParticipantHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	tournamentID, playerID, ok := h.ids(w, r)
	if !ok {
		return
	}
	participant, err := h.participantService.Withdraw(r.Context(), tournamentID, playerID)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"participant": participant})
}

func (h *ParticipantHandler) Remove(w http.ResponseWriter, r *http.Request) {
	tournamentID, playerID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.participantService.RemoveParticipant(r.Context(), tournamentID, playerID); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ParticipantHandler) ids(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return 0, 0, false
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return 0, 0, false
	}
	return tournamentID, playerID, true
}
