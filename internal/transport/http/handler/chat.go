package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studygenie/internal/app"
	"studygenie/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
	uploads     *Uploads
}

type ChatRequest struct {
	SessionID string `json:"sessionId" binding:"max=128"`
	Message   string `json:"message"`
	Topic     string `json:"topic" binding:"max=256"`
}

type TutorRequest struct {
	SessionID    string `json:"sessionId" binding:"required,max=128"`
	Message      string `json:"message"`
	Subject      string `json:"subject" binding:"max=256"`
	StudentLevel string `json:"studentLevel" binding:"max=64"`
}

type V1ChatRequest struct {
	SessionID string `json:"sessionId" binding:"max=128"`
	Message   string `json:"message"`
	Context   string `json:"context" binding:"max=256"`
}

type StudyChatRequest struct {
	SessionID string `json:"sessionId" form:"sessionId" binding:"max=128"`
	Message   string `json:"message" form:"message"`
}

func NewChatHandler(chatService *app.ChatService, uploads *Uploads) *ChatHandler {
	return &ChatHandler{chatService: chatService, uploads: uploads}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	reply, err := h.chatService.Basic(c.Request.Context(), app.ChatInput{
		SessionID: req.SessionID,
		UserID:    optionalUserID(c),
		Message:   req.Message,
		Topic:     req.Topic,
	})
	if err != nil {
		respondError(c, err, "chat failed")
		return
	}
	response.OK(c, reply)
}

// Tutor answers from the session's uploaded source, optionally tuned to a
// subject and student level.
func (h *ChatHandler) Tutor(c *gin.Context) {
	var req TutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "sessionId and message are required")
		return
	}

	reply, err := h.chatService.Tutor(c.Request.Context(), app.TutorInput{
		SessionID:    req.SessionID,
		UserID:       optionalUserID(c),
		Message:      req.Message,
		Subject:      req.Subject,
		StudentLevel: req.StudentLevel,
	})
	if err != nil {
		respondError(c, err, "send message failed")
		return
	}
	response.OK(c, reply)
}

func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Param("sessionId")
	turns, err := h.chatService.History(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err, "fetch history failed")
		return
	}
	response.OK(c, gin.H{
		"sessionId": sessionID,
		"history":   turns,
	})
}

func (h *ChatHandler) V1Chat(c *gin.Context) {
	var req V1ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	reply, err := h.chatService.Basic(c.Request.Context(), app.ChatInput{
		SessionID: req.SessionID,
		UserID:    optionalUserID(c),
		Message:   req.Message,
		Topic:     req.Context,
	})
	if err != nil {
		respondError(c, err, "chat failed")
		return
	}
	response.OK(c, reply)
}

// StudyChat turns a message or an attached document into study materials.
func (h *ChatHandler) StudyChat(c *gin.Context) {
	var req StudyChatRequest
	input := app.StudyChatInput{UserID: optionalUserID(c)}

	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			invalidPayload(c)
			return
		}
		file, err := h.uploads.file(c, "file")
		if err != nil {
			if errors.Is(err, errFileTooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, err.Error())
				return
			}
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid file upload")
			return
		}
		input.File = file
	} else if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	input.SessionID = req.SessionID
	input.Message = req.Message

	reply, err := h.chatService.StudyChat(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "generate study materials failed")
		return
	}
	response.OK(c, reply)
}
