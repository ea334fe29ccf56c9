package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-api/internal/service"
	"github.com/noah-isme/transcript-api/pkg/response"
)

// ExportHandler exposes transcript download endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Export transcript
// @Description Download the transcript as CSV or PDF
// @Tags Transcripts
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/transcript/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.FormatCSV))))

	result, err := h.exports.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
