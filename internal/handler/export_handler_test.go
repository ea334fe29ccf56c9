package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/internal/service"
)

type fakeViewProvider struct {
	view *models.TranscriptView
}

func (f *fakeViewProvider) View(ctx context.Context, studentID string) (*models.TranscriptView, error) {
	return f.view, nil
}

func newExportHandlerFixture() *ExportHandler {
	provider := &fakeViewProvider{view: &models.TranscriptView{
		StudentID:   "s1",
		StudentName: "Abebe Kebede",
		Program:     "Grade 12",
		Rows: []models.TranscriptRow{
			{Subject: "Amharic", Semester1: 85, Semester2: 95, Average: 90, Status: models.StatusExcellent},
		},
		TotalSubjects:  1,
		OverallAverage: 90,
		Status:         models.StatusExcellent,
	}}
	return NewExportHandler(service.NewExportService(provider, true, "", nil))
}

func exportRequest(handler *ExportHandler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Export(c)
	return rec
}

func TestExportHandlerDefaultsToCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := exportRequest(newExportHandlerFixture(), "/students/s1/transcript/export")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transcript-s1.csv")
}

func TestExportHandlerFormatIsCaseInsensitive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newExportHandlerFixture()

	rec := exportRequest(handler, "/students/s1/transcript/export?format=CSV")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	rec = exportRequest(handler, "/students/s1/transcript/export?format=Pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}

func TestExportHandlerRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := exportRequest(newExportHandlerFixture(), "/students/s1/transcript/export?format=xlsx")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
