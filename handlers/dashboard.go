package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-tournament/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
	errs             *ErrorResponder
}

func NewDashboardHandler(ds services.DashboardService, errs *ErrorResponder) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds, errs: errs}
}

// Stats godoc
// @Summary Сводные счётчики
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Router /dashboard [get]
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}
	h.errs.respond(w, r, http.StatusOK, jsonResponse{"stats": stats})
}
