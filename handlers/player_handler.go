package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/chess-tournament/repositories"
	"github.com/Dosada05/chess-tournament/services"
)

type PlayerHandler struct {
	playerService     services.PlayerService
	membershipService services.MembershipService
	rankingService    services.RankingService
	matchService      services.MatchService
	errs              *ErrorResponder
}

func NewPlayerHandler(
	playerService services.PlayerService,
	membershipService services.MembershipService,
	rankingService services.RankingService,
	matchService services.MatchService,
	errs *ErrorResponder,
) *PlayerHandler {
	return &PlayerHandler{
		playerService:     playerService,
		membershipService: membershipService,
		rankingService:    rankingService,
		matchService:      matchService,
		errs:              errs,
	}
}

// List godoc
// @Summary Список шахматистов
// @Tags players
// @Produce json
// @Param name query string false "Поиск по имени"
// @Param nationality query string false "Гражданство"
// @Param title query string false "Звание (GM, IM, ...)"
// @Param min_rating query int false "Минимальный рейтинг"
// @Param max_rating query int false "Максимальный рейтинг"
// @Param sort query string false "rating - по убыванию рейтинга"
// @Param limit query int false "Лимит" default(20)
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Router /players [get]
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := repositories.ListPlayersFilter{
		Name:        query.Get("name"),
		Nationality: query.Get("nationality"),
		Title:       query.Get("title"),
		ByRating:    query.Get("sort") == "rating",
		Limit:       limit,
		Offset:      offset,
	}
	if filter.MinRating, err = queryInt(r, "min_rating"); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if filter.MaxRating, err = queryInt(r, "max_rating"); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}

	players, err := h.playerService.ListPlayers(r.Context(), filter)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"players": players})
}

// Top обрабатывает GET /players/top?limit=10
func (h *PlayerHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	n := 10
	if limit != nil {
		n = *limit
	}
	players, err := h.playerService.TopPlayers(r.Context(), n)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"players": players})
}

func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	player, err := h.playerService.GetPlayer(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"player": player})
}

func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	player, err := h.playerService.CreatePlayer(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"player": player})
}

func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	player, err := h.playerService.UpdatePlayer(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"player": player})
}

func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if err := h.playerService.DeletePlayer(r.Context(), id); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlayerHandler) Memberships(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	memberships, err := h.membershipService.ListPlayerMemberships(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"memberships": memberships})
}

// AddMembership godoc
// @Summary Вступление шахматиста в клуб
// @Tags memberships
// @Description Активное членство может быть только одно; вторая попытка возвращает 409 с rule=ux_memberships_one_active.
// @Accept json
// @Produce json
// @Param playerID path int true "Player ID"
// @Param membership body services.AddMembershipInput true "Членство (player_id берётся из пути)"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Уже есть активное членство / клуб не найден"
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /players/{playerID}/memberships [post]
func (h *PlayerHandler) AddMembership(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.AddMembershipInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if input.PlayerID != 0 && input.PlayerID != id {
		h.errs.badRequest(w, r, errors.New("player_id in body does not match the URL"))
		return
	}
	input.PlayerID = id

	membership, err := h.membershipService.AddMembership(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"membership": membership})
}

// Transfer обрабатывает POST /players/{playerID}/transfer
func (h *PlayerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.TransferInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	membership, err := h.membershipService.TransferPlayer(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"membership": membership})
}

func (h *PlayerHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	rankings, err := h.rankingService.ListPlayerRankings(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"rankings": rankings})
}

func (h *PlayerHandler) RecordRanking(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.RecordRankingInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if input.PlayerID != 0 && input.PlayerID != id {
		h.errs.badRequest(w, r, errors.New("player_id in body does not match the URL"))
		return
	}
	input.PlayerID = id

	ranking, err := h.rankingService.RecordRanking(r.Context(), input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusCreated, jsonResponse{"ranking": ranking})
}

// RatingChange обрабатывает POST /players/{playerID}/rating
func (h *PlayerHandler) RatingChange(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.RatingChangeInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	ranking, err := h.rankingService.RecordRatingChange(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"ranking": ranking})
}

func (h *PlayerHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	matches, err := h.matchService.ListPlayerMatches(r.Context(), id, year, limit, offset)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

// Statistics godoc
// @Summary Статистика шахматиста
// @Tags players
// @Produce json
// @Param playerID path int true "Player ID"
// @Param year query int false "Только партии этого года"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /players/{playerID}/statistics [get]
func (h *PlayerHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	stats, err := h.matchService.GetPlayerStatistics(r.Context(), id, year)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"statistics": stats})
}
