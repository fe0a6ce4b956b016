package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-tournament/services"
)

type RankingHandler struct {
	rankingService services.RankingService
	errs           *ErrorResponder
}

func NewRankingHandler(rankingService services.RankingService, errs *ErrorResponder) *RankingHandler {
	return &RankingHandler{rankingService: rankingService, errs: errs}
}

func (h *RankingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "rankingID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	ranking, err := h.rankingService.GetRanking(r.Context(), id)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"ranking": ranking})
}

// Update godoc
// @Summary Исправить запись истории рейтинга
// @Tags rankings
// @Description Рейтинг шахматиста обновляется, только если новая дата не раньше прежней.
// @Accept json
// @Produce json
// @Param rankingID path int true "Ranking ID"
// @Param ranking body services.UpdateRankingInput true "Изменения"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /rankings/{rankingID} [patch]
func (h *RankingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "rankingID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	var input services.UpdateRankingInput
	if err := readJSON(w, r, &input); err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	ranking, err := h.rankingService.UpdateRanking(r.Context(), id, input)
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"ranking": ranking})
}

func (h *RankingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "rankingID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if err := h.rankingService.DeleteRanking(r.Context(), id); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
