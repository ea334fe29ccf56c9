package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/transcript-api/internal/models"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
)

// round2 rounds to two decimals, half away from zero. Cell values keep
// fractional precision; only the headline summary is whole-percent.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ValidateScore normalises raw input into a score within [0,100]. Parse
// failures and non-finite values become 0; out-of-range values clamp.
// Transcript entry favours uninterrupted typing over strict rejection, so
// this never returns an error.
func ValidateScore(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// YearAverage combines two semester scores. A zero semester means "not yet
// graded" and must not drag the average down: with one semester entered the
// average is that semester's score, not half of it.
func YearAverage(sem1, sem2 float64) float64 {
	if sem1 == 0 && sem2 == 0 {
		return 0
	}
	if sem1 == 0 {
		return round2(sem2)
	}
	if sem2 == 0 {
		return round2(sem1)
	}
	return round2((sem1 + sem2) / 2)
}

// Total sums the two semesters. No zero special-casing, unlike YearAverage.
func Total(sem1, sem2 float64) float64 {
	return round2(sem1 + sem2)
}

// StatusFor maps an average onto the academic status scale, first match wins.
func StatusFor(average float64) models.AcademicStatus {
	switch {
	case average >= 90:
		return models.StatusExcellent
	case average >= 80:
		return models.StatusGood
	case average >= 70:
		return models.StatusSatisfactory
	case average >= 60:
		return models.StatusPass
	default:
		return models.StatusNeedsImprovement
	}
}

// CellUpdate addresses one writable field of one score cell.
type CellUpdate struct {
	SubjectIndex int               `json:"subject_index" validate:"min=0"`
	GradeLevel   models.GradeLevel `json:"grade_level" validate:"required,oneof=G9 G10 G11 G12"`
	Field        models.ScoreField `json:"field" validate:"required,oneof=semester1 semester2 conduct"`
	Value        string            `json:"value"`
}

// ApplyCellUpdate mutates the addressed cell in place. Semester writes run
// through ValidateScore and recompute the derived year average and total;
// conduct writes store the enumerated value verbatim. An unknown subject
// index or a grade level outside the student's template indicates a stale
// caller and is rejected without touching the records.
func ApplyCellUpdate(records models.SubjectRecords, update CellUpdate) error {
	if update.SubjectIndex < 0 || update.SubjectIndex >= len(records) {
		return appErrors.Clone(appErrors.ErrCellNotFound, fmt.Sprintf("unknown subject index %d", update.SubjectIndex))
	}
	record := records[update.SubjectIndex]
	cell, ok := record.Cells[update.GradeLevel]
	if !ok {
		return appErrors.Clone(appErrors.ErrCellNotFound, fmt.Sprintf("grade level %s not covered for %s", update.GradeLevel, record.Subject))
	}

	switch update.Field {
	case models.FieldConduct:
		conduct := models.Conduct(update.Value)
		if !conduct.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown conduct %q", update.Value))
		}
		cell.Conduct = conduct
	case models.FieldSemester1:
		cell.Semester1 = ValidateScore(update.Value)
	case models.FieldSemester2:
		cell.Semester2 = ValidateScore(update.Value)
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown field %q", update.Field))
	}

	if update.Field != models.FieldConduct {
		cell.YearAvg = YearAverage(cell.Semester1, cell.Semester2)
		cell.Total = Total(cell.Semester1, cell.Semester2)
	}

	record.Cells[update.GradeLevel] = cell
	return nil
}

// LevelTotals sums each score column across all subjects at one grade
// level. Sums are rounded once at the end so per-addend rounding error
// cannot compound. The conduct column aggregates by mode; ties resolve by
// the enumeration's declaration order.
func LevelTotals(records models.SubjectRecords, level models.GradeLevel) models.GradeLevelTotals {
	totals := models.GradeLevelTotals{GradeLevel: level, Conduct: models.ConductGood}
	counts := make(map[models.Conduct]int, len(models.ConductPriority))
	counted := false

	for _, record := range records {
		cell, ok := record.Cells[level]
		if !ok {
			continue
		}
		counted = true
		totals.Semester1 += cell.Semester1
		totals.Semester2 += cell.Semester2
		totals.YearAvg += cell.YearAvg
		totals.Total += cell.Total
		counts[cell.Conduct]++
	}

	totals.Semester1 = round2(totals.Semester1)
	totals.Semester2 = round2(totals.Semester2)
	totals.YearAvg = round2(totals.YearAvg)
	totals.Total = round2(totals.Total)

	if counted {
		dominant := models.ConductPriority[0]
		best := counts[dominant]
		for _, conduct := range models.ConductPriority[1:] {
			if counts[conduct] > best {
				dominant = conduct
				best = counts[conduct]
			}
		}
		totals.Conduct = dominant
	}
	return totals
}

// SubjectAverages derives one average per subject in catalog order: the
// mean of the subject's non-zero year averages across its grade levels,
// or 0 when the subject has no graded level at all.
func SubjectAverages(records models.SubjectRecords) []float64 {
	averages := make([]float64, 0, len(records))
	for _, record := range records {
		sum := 0.0
		n := 0
		for _, cell := range record.Cells {
			if cell.YearAvg > 0 {
				sum += cell.YearAvg
				n++
			}
		}
		if n == 0 {
			averages = append(averages, 0)
			continue
		}
		averages = append(averages, round2(sum/float64(n)))
	}
	return averages
}

// OverallSummary rolls subject averages up into the headline statistic.
// Zero averages mean "ungraded" and are excluded from the mean rather than
// counted as failing entries. The result is rounded to the nearest whole
// percent for the summary view.
func OverallSummary(averages []float64) models.TranscriptSummary {
	sum := 0.0
	graded := 0
	for _, avg := range averages {
		if avg > 0 {
			sum += avg
			graded++
		}
	}
	if graded == 0 {
		return models.TranscriptSummary{OverallAverage: 0, Status: StatusFor(0), GradedSubjects: 0}
	}
	overall := int(math.Round(sum / float64(graded)))
	return models.TranscriptSummary{
		OverallAverage: overall,
		Status:         StatusFor(float64(overall)),
		GradedSubjects: graded,
	}
}

// ReconcileRecords builds the record set implied by a template, seeding
// cells from any previous records keyed by grade-level label. Levels
// dropped by the template are discarded; reintroduced levels start from
// default-zero cells. The full subject catalog is always present, in order.
func ReconcileRecords(template models.Template, previous models.SubjectRecords) models.SubjectRecords {
	levels := template.GradeLevels()
	prior := make(map[string]models.SubjectRecord, len(previous))
	for _, record := range previous {
		prior[record.Subject] = record
	}

	records := make(models.SubjectRecords, 0, len(models.Subjects))
	for _, subject := range models.Subjects {
		cells := make(map[models.GradeLevel]models.ScoreCell, len(levels))
		for _, level := range levels {
			if record, ok := prior[subject]; ok {
				if cell, ok := record.Cells[level]; ok {
					cells[level] = cell
					continue
				}
			}
			cells[level] = models.ScoreCell{Conduct: models.ConductGood}
		}
		records = append(records, models.SubjectRecord{Subject: subject, Cells: cells})
	}
	return records
}
