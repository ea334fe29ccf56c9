package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-api/internal/models"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
	"github.com/noah-isme/transcript-api/pkg/export"
)

// ExportFormat enumerates the supported transcript export encodings.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

var transcriptHeaders = []string{"Subject", "Semester 1", "Semester 2", "Average", "Status"}

type viewProvider interface {
	View(ctx context.Context, studentID string) (*models.TranscriptView, error)
}

// ExportResult carries the rendered document plus response metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a student's transcript view into downloadable
// documents. It reads through the same view pipeline the UI uses, so an
// export can never disagree with what was on screen.
type ExportService struct {
	views      viewProvider
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
	enabled    bool
	schoolName string
	now        func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(views viewProvider, enabled bool, schoolName string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		views:      views,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
		enabled:    enabled,
		schoolName: schoolName,
		now:        time.Now,
	}
}

// Export renders the student's transcript in the requested format.
func (s *ExportService) Export(ctx context.Context, studentID string, format ExportFormat) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "transcript export is disabled")
	}

	view, err := s.views.View(ctx, studentID)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		return s.renderCSV(view)
	case FormatPDF:
		return s.renderPDF(view)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) renderCSV(view *models.TranscriptView) (*ExportResult, error) {
	data, err := s.csv.Render(export.Dataset{Headers: transcriptHeaders, Rows: viewRows(view)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return &ExportResult{
		Filename:    exportFilename(view, "csv"),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

func (s *ExportService) renderPDF(view *models.TranscriptView) (*ExportResult, error) {
	title := "Academic Transcript"
	if s.schoolName != "" {
		title = s.schoolName + " Academic Transcript"
	}

	doc := export.Document{
		Title: title,
		Info: []export.KeyValue{
			{Key: "Student Name", Value: view.StudentName},
			{Key: "Gender", Value: view.Gender},
			{Key: "Age", Value: strconv.Itoa(view.Age)},
			{Key: "Academic Year", Value: view.AcademicYears},
			{Key: "Program", Value: view.Program},
		},
		Table: export.Dataset{Headers: transcriptHeaders, Rows: viewRows(view)},
		Summary: []export.KeyValue{
			{Key: "Total Subjects", Value: strconv.Itoa(view.TotalSubjects)},
			{Key: "Overall Average", Value: overallDisplay(view)},
			{Key: "Status", Value: string(view.Status)},
		},
		Footer: fmt.Sprintf("Generated on %s · Document ID %s", s.now().UTC().Format("2006-01-02"), uuid.NewString()),
	}

	data, err := s.pdf.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return &ExportResult{
		Filename:    exportFilename(view, "pdf"),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// viewRows flattens display rows into export cells. Ungraded values print
// as a dash rather than 0.00 so a blank transcript reads as blank.
func viewRows(view *models.TranscriptView) []map[string]string {
	rows := make([]map[string]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		status := "-"
		if row.Status != "" {
			status = string(row.Status)
		}
		rows = append(rows, map[string]string{
			"Subject":    row.Subject,
			"Semester 1": scoreDisplay(row.Semester1),
			"Semester 2": scoreDisplay(row.Semester2),
			"Average":    scoreDisplay(row.Average),
			"Status":     status,
		})
	}
	return rows
}

func scoreDisplay(v float64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func overallDisplay(view *models.TranscriptView) string {
	if view.OverallAverage == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", view.OverallAverage)
}

func exportFilename(view *models.TranscriptView, ext string) string {
	name := view.StudentID
	if name == "" {
		name = "transcript"
	}
	return fmt.Sprintf("transcript-%s.%s", name, ext)
}
