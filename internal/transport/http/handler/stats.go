package handler

import (
	"github.com/gin-gonic/gin"

	"studygenie/internal/app"
	"studygenie/internal/transport/http/response"
)

type StatsHandler struct {
	statsService *app.StatsService
}

func NewStatsHandler(statsService *app.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Session(c *gin.Context) {
	stats, err := h.statsService.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "fetch session stats failed")
		return
	}
	response.OK(c, stats)
}
