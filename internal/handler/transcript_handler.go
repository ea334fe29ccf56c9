package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-api/internal/service"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
	"github.com/noah-isme/transcript-api/pkg/response"
)

// TranscriptHandler exposes transcript read and grade-entry endpoints.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(transcripts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

// Get godoc
// @Summary Get transcript
// @Description Full record set with per-grade-level totals and overall summary
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	transcript, err := h.transcripts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// UpdateCell godoc
// @Summary Update one score cell
// @Description Write a semester score or conduct rating; derived values recompute in the same call
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.CellUpdate true "Cell update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/transcript/cells [patch]
func (h *TranscriptHandler) UpdateCell(c *gin.Context) {
	var update service.CellUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cell update payload"))
		return
	}
	transcript, err := h.transcripts.UpdateCell(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// View godoc
// @Summary Get transcript view
// @Description Flattened per-subject rows with grade distribution, served from cache when warm
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/transcript/view [get]
func (h *TranscriptHandler) View(c *gin.Context) {
	view, err := h.transcripts.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
