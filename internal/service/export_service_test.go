package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-api/internal/models"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
)

type staticViewProvider struct {
	view *models.TranscriptView
	err  error
}

func (p *staticViewProvider) View(ctx context.Context, studentID string) (*models.TranscriptView, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.view, nil
}

func exportViewFixture() *models.TranscriptView {
	return &models.TranscriptView{
		StudentID:     "s1",
		StudentName:   "Abebe Kebede",
		Gender:        "Male",
		Age:           18,
		Program:       "Grade 12",
		AcademicYears: "2026-2026",
		Rows: []models.TranscriptRow{
			{Subject: "Amharic", Semester1: 85, Semester2: 95, Average: 90, Status: models.StatusExcellent},
			{Subject: "English", Semester1: 0, Semester2: 0, Average: 0},
		},
		TotalSubjects:  2,
		OverallAverage: 90,
		Status:         models.StatusExcellent,
	}
}

func TestExportServiceCSV(t *testing.T) {
	svc := NewExportService(&staticViewProvider{view: exportViewFixture()}, true, "", nil)

	result, err := svc.Export(context.Background(), "s1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "transcript-s1.csv", result.Filename)

	body := string(result.Data)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Subject,Semester 1,Semester 2,Average,Status", lines[0])
	assert.Equal(t, "Amharic,85.00,95.00,90.00,Excellent", lines[1])
	assert.Equal(t, "English,-,-,-,-", lines[2], "ungraded cells print as dashes")
}

func TestExportServicePDF(t *testing.T) {
	svc := NewExportService(&staticViewProvider{view: exportViewFixture()}, true, "Addis Academy", nil)

	result, err := svc.Export(context.Background(), "s1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "transcript-s1.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"), "output is a PDF document")
}

func TestExportServiceDisabled(t *testing.T) {
	svc := NewExportService(&staticViewProvider{view: exportViewFixture()}, false, "", nil)

	_, err := svc.Export(context.Background(), "s1", FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := NewExportService(&staticViewProvider{view: exportViewFixture()}, true, "", nil)

	_, err := svc.Export(context.Background(), "s1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServicePropagatesViewError(t *testing.T) {
	svc := NewExportService(&staticViewProvider{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")}, true, "", nil)

	_, err := svc.Export(context.Background(), "s1", FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
