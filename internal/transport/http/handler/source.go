package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studygenie/internal/app"
	"studygenie/internal/transport/http/response"
)

type SourceHandler struct {
	sourceService *app.SourceService
	uploads       *Uploads
}

type UploadSourceRequest struct {
	SessionID string `json:"sessionId" form:"sessionId" binding:"max=128"`
	URL       string `json:"url" form:"url" binding:"max=2048"`
	Link      string `json:"link" form:"link" binding:"max=2048"`
	Text      string `json:"text" form:"text"`
}

func NewSourceHandler(sourceService *app.SourceService, uploads *Uploads) *SourceHandler {
	return &SourceHandler{sourceService: sourceService, uploads: uploads}
}

// Upload accepts a multipart form (file, url or text) or a JSON body (url or
// text).
func (h *SourceHandler) Upload(c *gin.Context) {
	var req UploadSourceRequest
	input := app.UploadInput{UserID: optionalUserID(c)}

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
	input.URL = req.URL
	if input.URL == "" {
		input.URL = req.Link
	}
	input.Text = req.Text

	result, err := h.sourceService.Upload(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "process source failed")
		return
	}
	response.OK(c, result)
}

func (h *SourceHandler) Get(c *gin.Context) {
	info, err := h.sourceService.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, err, "fetch source failed")
		return
	}
	response.OK(c, info)
}
