package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/services"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	archiveService    services.ArchiveService
	errs              *ErrorResponder
}

func NewTournamentHandler(ts services.TournamentService, as services.ArchiveService, errs *ErrorResponder) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		archiveService:    as,
		errs:              errs,
	}
}

// Create godoc
// @Summary Создать турнир
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournament body services.CreateTournamentInput true "Турнир"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Дата окончания раньше даты начала / клуб не найден"
// @Failure 422 {object} map[string]interface{} "Нарушено ограничение поля (код занят, длина, точность)"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetTournamentByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// List godoc
// @Summary Список турниров
// @Tags tournaments
// @Produce json
// @Param status query string false "Статус"
// @Param type query string false "Тип турнира"
// @Param hosting_club_id query int false "Клуб-организатор"
// @Param year query int false "Год начала"
// @Param upcoming query bool false "Только начинающиеся сегодня или позже"
// @Param limit query int false "Лимит" default(20)
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments [get]
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	var input services.ListTournamentsInput
	var err error
	query := r.URL.Query()

	if s := query.Get("status"); s != "" {
		status := models.TournamentStatus(s)
		if !status.Valid() {
			h.errs.badRequest(w, r, errors.New("invalid status query parameter"))
			return
		}
		input.Status = &status
	}
	if s := query.Get("type"); s != "" {
		t := models.TournamentType(s)
		if !t.Valid() {
			h.errs.badRequest(w, r, errors.New("invalid type query parameter"))
			return
		}
		input.Type = &t
	}
	if input.HostingClubID, err = queryInt64(r, "hosting_club_id"); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if input.Year, err = queryInt(r, "year"); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if input.Upcoming, err = queryBool(r, "upcoming"); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if input.Limit, input.Offset, err = pagination(r); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	tournament, err := h.tournamentService.UpdateTournament(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

type updateStatusInput struct {
	Status models.TournamentStatus `json:"status"`
}

// UpdateStatus обрабатывает PATCH /tournaments/{tournamentID}/status
func (h *TournamentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input updateStatusInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	tournament, err := h.tournamentService.UpdateTournamentStatus(r.Context(), id, input.Status)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if err := h.tournamentService.DeleteTournament(r.Context(), id); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) ListSponsors(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	sponsors, err := h.tournamentService.ListSponsors(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"sponsors": sponsors})
}

func (h *TournamentHandler) AddSponsor(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.SponsorshipInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	sponsorship, err := h.tournamentService.AddSponsor(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"sponsorship": sponsorship})
}

func (h *TournamentHandler) UpdateSponsorship(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	sponsorID, err := getIDFromURL(r, "sponsorID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateSponsorshipInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	sponsorship, err := h.tournamentService.UpdateSponsorship(r.Context(), id, sponsorID, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"sponsorship": sponsorship})
}

func (h *TournamentHandler) RemoveSponsor(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	sponsorID, err := getIDFromURL(r, "sponsorID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if err := h.tournamentService.RemoveSponsor(r.Context(), id, sponsorID); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	stats, err := h.tournamentService.GetStatistics(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"statistics": stats})
}

// Archive godoc
// @Summary Выгрузить партии турнира в PGN
// @Tags tournaments
// @Description Собирает все партии турнира в один PGN-файл и загружает его в объектное хранилище.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{} "key и url архива"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "В турнире нет партий"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/archive [post]
func (h *TournamentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	archive, err := h.archiveService.ExportTournamentGames(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"archive": archive})
}

// DeleteArchive godoc
// @Summary Удалить выгруженный PGN-архив
// @Tags tournaments
// @Param tournamentID path int true "Tournament ID"
// @Param key query string true "Ключ архива"
// @Success 204
// @Failure 422 {object} map[string]interface{} "Ключ не принадлежит турниру"
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/archive [delete]
func (h *TournamentHandler) DeleteArchive(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		h.errs.badRequest(w, r, errors.New("query parameter key is required"))
		return
	}
	if err := h.archiveService.DeleteArchive(r.Context(), id, key); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
