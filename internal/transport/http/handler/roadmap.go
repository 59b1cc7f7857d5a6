package handler

import (
	"github.com/gin-gonic/gin"

	"studygenie/internal/app"
	"studygenie/internal/prompt"
	"studygenie/internal/transport/http/response"
)

type RoadmapHandler struct {
	roadmapService *app.RoadmapService
}

type RoadmapRequest struct {
	SessionID   string             `json:"sessionId" binding:"required,max=128"`
	Topic       string             `json:"topic" binding:"required,max=256"`
	Description string             `json:"description"`
	Level       string             `json:"level" binding:"max=64"`
	Timeframe   string             `json:"timeframe" binding:"max=64"`
	Goals       []string           `json:"goals" binding:"max=50"`
	Preferences prompt.Preferences `json:"preferences"`
}

func NewRoadmapHandler(roadmapService *app.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{roadmapService: roadmapService}
}

func (h *RoadmapHandler) Generate(c *gin.Context) {
	var req RoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	result, err := h.roadmapService.Generate(c.Request.Context(), app.RoadmapInput{
		SessionID:   req.SessionID,
		UserID:      optionalUserID(c),
		Topic:       req.Topic,
		Description: req.Description,
		Level:       req.Level,
		Timeframe:   req.Timeframe,
		Goals:       req.Goals,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondError(c, err, "generate roadmap failed")
		return
	}
	response.OK(c, result)
}

func (h *RoadmapHandler) Progress(c *gin.Context) {
	progress, err := h.roadmapService.Progress(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, err, "fetch progress failed")
		return
	}
	response.OK(c, progress)
}
