package service

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-api/internal/models"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
)

func TestValidateScore(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"plain", "85", 85},
		{"decimal", "85.5", 85.5},
		{"whitespace", " 70 ", 70},
		{"above range clamps", "150", 100},
		{"negative clamps", "-20", 0},
		{"empty", "", 0},
		{"garbage", "abc", 0},
		{"nan literal", "NaN", 0},
		{"infinity literal", "Inf", 0},
		{"boundary low", "0", 0},
		{"boundary high", "100", 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidateScore(tc.raw))
		})
	}
}

func TestValidateScoreIdempotent(t *testing.T) {
	for _, raw := range []string{"85.5", "150", "-20", "", "abc", "100", "0"} {
		once := ValidateScore(raw)
		twice := ValidateScore(strconv.FormatFloat(once, 'f', -1, 64))
		assert.Equal(t, once, twice, "raw %q", raw)
	}
}

func TestYearAverage(t *testing.T) {
	assert.Equal(t, 0.0, YearAverage(0, 0))
	assert.Equal(t, 95.0, YearAverage(0, 95))
	assert.Equal(t, 85.0, YearAverage(85, 0))
	assert.Equal(t, 90.0, YearAverage(85, 95))
	assert.Equal(t, 85.55, YearAverage(85.5, 85.6))
	assert.Equal(t, 70.0, YearAverage(70, 0), "single semester is not halved")
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 180.0, Total(85, 95))
	assert.Equal(t, 70.0, Total(70, 0), "total has no zero special-casing")
	assert.Equal(t, 0.0, Total(0, 0))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, models.StatusExcellent, StatusFor(90))
	assert.Equal(t, models.StatusGood, StatusFor(89.99))
	assert.Equal(t, models.StatusGood, StatusFor(80))
	assert.Equal(t, models.StatusSatisfactory, StatusFor(79))
	assert.Equal(t, models.StatusPass, StatusFor(60))
	assert.Equal(t, models.StatusNeedsImprovement, StatusFor(59.9))
	assert.Equal(t, models.StatusNeedsImprovement, StatusFor(0))
}

func TestApplyCellUpdateSemesterWrite(t *testing.T) {
	records := ReconcileRecords(models.TemplateG12, nil)

	err := ApplyCellUpdate(records, CellUpdate{SubjectIndex: 2, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester1, Value: "85"})
	require.NoError(t, err)
	err = ApplyCellUpdate(records, CellUpdate{SubjectIndex: 2, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester2, Value: "95"})
	require.NoError(t, err)

	cell := records[2].Cells[models.GradeLevelG12]
	assert.Equal(t, 85.0, cell.Semester1)
	assert.Equal(t, 95.0, cell.Semester2)
	assert.Equal(t, 90.0, cell.YearAvg)
	assert.Equal(t, 180.0, cell.Total)
}

func TestApplyCellUpdateClampsRawInput(t *testing.T) {
	records := ReconcileRecords(models.TemplateG12, nil)

	err := ApplyCellUpdate(records, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester1, Value: "150"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, records[0].Cells[models.GradeLevelG12].Semester1)

	err = ApplyCellUpdate(records, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester2, Value: "not a number"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, records[0].Cells[models.GradeLevelG12].Semester2)
	assert.Equal(t, 100.0, records[0].Cells[models.GradeLevelG12].YearAvg)
}

func TestApplyCellUpdateConduct(t *testing.T) {
	records := ReconcileRecords(models.TemplateG12, nil)

	err := ApplyCellUpdate(records, CellUpdate{SubjectIndex: 1, GradeLevel: models.GradeLevelG12, Field: models.FieldConduct, Value: "Excellent"})
	require.NoError(t, err)
	cell := records[1].Cells[models.GradeLevelG12]
	assert.Equal(t, models.ConductExcellent, cell.Conduct)
	assert.Equal(t, 0.0, cell.YearAvg, "conduct write does not touch derived scores")

	err = ApplyCellUpdate(records, CellUpdate{SubjectIndex: 1, GradeLevel: models.GradeLevelG12, Field: models.FieldConduct, Value: "Outstanding"})
	require.Error(t, err)
	assert.Equal(t, models.ConductExcellent, records[1].Cells[models.GradeLevelG12].Conduct)
}

func TestApplyCellUpdateStructuralErrors(t *testing.T) {
	records := ReconcileRecords(models.TemplateG12, nil)

	err := ApplyCellUpdate(records, CellUpdate{SubjectIndex: 99, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester1, Value: "80"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCellNotFound.Code, appErr.Code)

	err = ApplyCellUpdate(records, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG9, Field: models.FieldSemester1, Value: "80"})
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCellNotFound.Code, appErr.Code)

	for _, record := range records {
		for _, cell := range record.Cells {
			assert.Zero(t, cell.Semester1)
			assert.Zero(t, cell.Semester2)
		}
	}
}

func TestLevelTotals(t *testing.T) {
	records := ReconcileRecords(models.TemplateG12, nil)
	require.NoError(t, ApplyCellUpdate(records, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester1, Value: "80"}))
	require.NoError(t, ApplyCellUpdate(records, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester2, Value: "90"}))
	require.NoError(t, ApplyCellUpdate(records, CellUpdate{SubjectIndex: 1, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester1, Value: "70"}))

	totals := LevelTotals(records, models.GradeLevelG12)
	assert.Equal(t, models.GradeLevelG12, totals.GradeLevel)
	assert.Equal(t, 150.0, totals.Semester1)
	assert.Equal(t, 90.0, totals.Semester2)
	assert.Equal(t, 155.0, totals.YearAvg)
	assert.Equal(t, 240.0, totals.Total)
}

func TestLevelTotalsDominantConduct(t *testing.T) {
	records := ReconcileRecords(models.TemplateG12, nil)
	// 5 Excellent, 5 Good explicitly, remaining 3 default to Good.
	for i := 0; i < 5; i++ {
		require.NoError(t, ApplyCellUpdate(records, CellUpdate{SubjectIndex: i, GradeLevel: models.GradeLevelG12, Field: models.FieldConduct, Value: "Excellent"}))
	}

	totals := LevelTotals(records, models.GradeLevelG12)
	assert.Equal(t, models.ConductGood, totals.Conduct, "8 Good beats 5 Excellent")

	for i := 5; i < 13; i++ {
		require.NoError(t, ApplyCellUpdate(records, CellUpdate{SubjectIndex: i, GradeLevel: models.GradeLevelG12, Field: models.FieldConduct, Value: "Needs Improvement"}))
	}
	// Now 5 Excellent, 8 Needs Improvement.
	totals = LevelTotals(records, models.GradeLevelG12)
	assert.Equal(t, models.ConductNeedsImprovement, totals.Conduct)
}

func TestLevelTotalsConductTieBreak(t *testing.T) {
	records := models.SubjectRecords{
		subjectWithConduct("A", models.ConductGood),
		subjectWithConduct("B", models.ConductGood),
		subjectWithConduct("C", models.ConductExcellent),
		subjectWithConduct("D", models.ConductExcellent),
	}
	totals := LevelTotals(records, models.GradeLevelG12)
	assert.Equal(t, models.ConductExcellent, totals.Conduct, "ties resolve to the higher rating")
}

func subjectWithConduct(name string, conduct models.Conduct) models.SubjectRecord {
	return models.SubjectRecord{
		Subject: name,
		Cells: map[models.GradeLevel]models.ScoreCell{
			models.GradeLevelG12: {Conduct: conduct},
		},
	}
}

func TestLevelTotalsNoCells(t *testing.T) {
	totals := LevelTotals(models.SubjectRecords{}, models.GradeLevelG12)
	assert.Equal(t, models.ConductGood, totals.Conduct)
	assert.Zero(t, totals.Total)
}

func TestSubjectAverages(t *testing.T) {
	records := ReconcileRecords(models.TemplateG11G12, nil)
	require.NoError(t, ApplyCellUpdate(records, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG11, Field: models.FieldSemester1, Value: "80"}))
	require.NoError(t, ApplyCellUpdate(records, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester1, Value: "90"}))

	averages := SubjectAverages(records)
	require.Len(t, averages, len(models.Subjects))
	assert.Equal(t, 85.0, averages[0], "mean of the two graded levels")
	assert.Equal(t, 0.0, averages[1], "ungraded subject stays zero")
}

func TestOverallSummary(t *testing.T) {
	summary := OverallSummary([]float64{0, 80, 90, 0})
	assert.Equal(t, 85, summary.OverallAverage)
	assert.Equal(t, models.StatusGood, summary.Status)
	assert.Equal(t, 2, summary.GradedSubjects)

	empty := OverallSummary([]float64{0, 0})
	assert.Equal(t, 0, empty.OverallAverage)
	assert.Equal(t, models.StatusNeedsImprovement, empty.Status)
	assert.Equal(t, 0, empty.GradedSubjects)
}

func TestReconcileRecords(t *testing.T) {
	records := ReconcileRecords(models.TemplateG10G12, nil)
	require.Len(t, records, len(models.Subjects))
	for i, record := range records {
		assert.Equal(t, models.Subjects[i], record.Subject)
		require.Len(t, record.Cells, 3)
		for _, level := range []models.GradeLevel{models.GradeLevelG10, models.GradeLevelG11, models.GradeLevelG12} {
			cell, ok := record.Cells[level]
			require.True(t, ok)
			assert.Equal(t, models.ConductGood, cell.Conduct)
			assert.Zero(t, cell.Semester1)
		}
		_, hasG9 := record.Cells[models.GradeLevelG9]
		assert.False(t, hasG9)
	}
}

func TestReconcileRecordsCarriesSharedLevels(t *testing.T) {
	wide := ReconcileRecords(models.TemplateG9G12, nil)
	require.NoError(t, ApplyCellUpdate(wide, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG9, Field: models.FieldSemester1, Value: "60"}))
	require.NoError(t, ApplyCellUpdate(wide, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG11, Field: models.FieldSemester1, Value: "75"}))
	require.NoError(t, ApplyCellUpdate(wide, CellUpdate{SubjectIndex: 0, GradeLevel: models.GradeLevelG12, Field: models.FieldSemester1, Value: "88"}))

	narrow := ReconcileRecords(models.TemplateG11G12, wide)
	cell := narrow[0].Cells[models.GradeLevelG11]
	assert.Equal(t, 75.0, cell.Semester1)
	cell = narrow[0].Cells[models.GradeLevelG12]
	assert.Equal(t, 88.0, cell.Semester1)
	_, hasG9 := narrow[0].Cells[models.GradeLevelG9]
	assert.False(t, hasG9, "dropped level is discarded")

	regrown := ReconcileRecords(models.TemplateG9G12, narrow)
	assert.Zero(t, regrown[0].Cells[models.GradeLevelG9].Semester1, "reintroduced level starts from defaults")
	assert.Equal(t, 88.0, regrown[0].Cells[models.GradeLevelG12].Semester1)
}
