package handler

import (
	"github.com/gin-gonic/gin"

	"studygenie/internal/app"
	"studygenie/internal/transport/http/response"
)

type ToolsHandler struct {
	toolsService *app.ToolsService
}

type QuizRequest struct {
	SessionID     string `json:"sessionId" binding:"max=128"`
	Topic         string `json:"topic" binding:"required,max=256"`
	Difficulty    string `json:"difficulty" binding:"max=32"`
	QuestionCount int    `json:"questionCount"`
	QuestionType  string `json:"questionType" binding:"max=64"`
}

type FlashcardsRequest struct {
	SessionID  string `json:"sessionId" binding:"max=128"`
	Topic      string `json:"topic" binding:"required,max=256"`
	Difficulty string `json:"difficulty" binding:"max=32"`
	CardCount  int    `json:"cardCount"`
}

type ProblemsRequest struct {
	Topic        string `json:"topic" binding:"required,max=256"`
	Difficulty   string `json:"difficulty" binding:"max=32"`
	ProblemCount int    `json:"problemCount"`
	IncludeSteps *bool  `json:"includeSteps"`
}

type RapidFireRequest struct {
	Topic         string `json:"topic" binding:"required,max=256"`
	Difficulty    string `json:"difficulty" binding:"max=32"`
	QuestionCount int    `json:"questionCount"`
	TimeLimit     int    `json:"timeLimit"`
}

type StudyPlanRequest struct {
	Goals         []string `json:"goals" binding:"required,min=1,max=50"`
	TimeAvailable string   `json:"timeAvailable" binding:"max=64"`
	LearningStyle string   `json:"learningStyle" binding:"max=64"`
	CurrentLevel  string   `json:"currentLevel" binding:"max=64"`
}

type StudyMaterialRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
}

func NewToolsHandler(toolsService *app.ToolsService) *ToolsHandler {
	return &ToolsHandler{toolsService: toolsService}
}

func (h *ToolsHandler) Quiz(c *gin.Context) {
	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}
	result, err := h.toolsService.Quiz(c.Request.Context(), app.QuizInput{
		SessionID:    req.SessionID,
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		Count:        req.QuestionCount,
		QuestionType: req.QuestionType,
	})
	if err != nil {
		respondError(c, err, "generate quiz failed")
		return
	}
	response.OK(c, result)
}

func (h *ToolsHandler) Flashcards(c *gin.Context) {
	var req FlashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}
	result, err := h.toolsService.Flashcards(c.Request.Context(), app.FlashcardsInput{
		SessionID:  req.SessionID,
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Count:      req.CardCount,
	})
	if err != nil {
		respondError(c, err, "generate flashcards failed")
		return
	}
	response.OK(c, result)
}

func (h *ToolsHandler) Problems(c *gin.Context) {
	var req ProblemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}
	includeSteps := true
	if req.IncludeSteps != nil {
		includeSteps = *req.IncludeSteps
	}
	result, err := h.toolsService.Problems(c.Request.Context(), app.ProblemsInput{
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		Count:        req.ProblemCount,
		IncludeSteps: includeSteps,
	})
	if err != nil {
		respondError(c, err, "generate problems failed")
		return
	}
	response.OK(c, result)
}

func (h *ToolsHandler) RapidFire(c *gin.Context) {
	var req RapidFireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}
	result, err := h.toolsService.RapidFire(c.Request.Context(), app.RapidFireInput{
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Count:      req.QuestionCount,
		TimeLimit:  req.TimeLimit,
	})
	if err != nil {
		respondError(c, err, "generate rapid fire questions failed")
		return
	}
	response.OK(c, result)
}

func (h *ToolsHandler) StudyPlan(c *gin.Context) {
	var req StudyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}
	result, err := h.toolsService.StudyPlan(c.Request.Context(), app.StudyPlanInput{
		Goals:         req.Goals,
		TimeAvailable: req.TimeAvailable,
		LearningStyle: req.LearningStyle,
		CurrentLevel:  req.CurrentLevel,
	})
	if err != nil {
		respondError(c, err, "generate study plan failed")
		return
	}
	response.OK(c, result)
}

// StudyMaterial serves /api/gemini/generate. An empty type means all
// materials.
func (h *ToolsHandler) StudyMaterial(c *gin.Context) {
	var req StudyMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}
	focus := req.Type
	if focus == "" {
		focus = "all"
	}
	result, err := h.toolsService.StudyMaterial(c.Request.Context(), req.Content, focus)
	if err != nil {
		respondError(c, err, "generate content failed")
		return
	}
	response.OK(c, result)
}
