package service

import (
	"github.com/noah-isme/transcript-api/internal/models"
)

// ViewService projects a finalized student into the read-only transcript
// view consumed by rendering and export. It performs no mutation and may
// be recomputed freely.
type ViewService struct{}

// NewViewService constructs a ViewService.
func NewViewService() *ViewService {
	return &ViewService{}
}

// Build flattens the student's records into per-subject display rows. The
// row average is the plain mean of the two semesters — a deliberately
// simpler rule than the cell-level year average, used only at export time.
// Rows are taken from the template's terminal grade level, the year the
// transcript headline reports on. A nil student yields an empty view.
func (s *ViewService) Build(student *models.Student) *models.TranscriptView {
	if student == nil {
		return &models.TranscriptView{}
	}

	levels := student.Template.GradeLevels()
	terminal := levels[len(levels)-1]

	view := &models.TranscriptView{
		StudentID:     student.ID,
		StudentName:   student.FullName,
		Gender:        student.Gender,
		Age:           student.Age,
		Program:       student.Template.Label(),
		AcademicYears: student.AcademicYears,
	}

	averages := make([]float64, 0, len(student.Grades))
	for _, record := range student.Grades {
		cell := record.Cells[terminal]
		avg := round2((cell.Semester1 + cell.Semester2) / 2)
		row := models.TranscriptRow{
			Subject:   record.Subject,
			Semester1: cell.Semester1,
			Semester2: cell.Semester2,
			Average:   avg,
		}
		if avg > 0 {
			row.Status = StatusFor(avg)
		}
		view.Rows = append(view.Rows, row)
		averages = append(averages, avg)

		switch {
		case avg >= 90:
			view.Distribution.A++
		case avg >= 80:
			view.Distribution.B++
		case avg >= 70:
			view.Distribution.C++
		case avg >= 60:
			view.Distribution.D++
		}
	}

	summary := OverallSummary(averages)
	view.TotalSubjects = len(view.Rows)
	view.OverallAverage = summary.OverallAverage
	view.Status = summary.Status
	return view
}
