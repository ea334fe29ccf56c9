package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Template selects which contiguous run of grade levels a student's
// transcript covers. Every template ends at the terminal level G12.
type Template string

const (
	TemplateG9G12  Template = "G9-G12"
	TemplateG10G12 Template = "G10-G12"
	TemplateG11G12 Template = "G11-G12"
	TemplateG12    Template = "G12"
)

// GradeLevel identifies one academic year within a transcript.
type GradeLevel string

const (
	GradeLevelG9  GradeLevel = "G9"
	GradeLevelG10 GradeLevel = "G10"
	GradeLevelG11 GradeLevel = "G11"
	GradeLevelG12 GradeLevel = "G12"
)

// GradeLevels resolves the ordered grade levels covered by the template.
// Unrecognised values fail closed to the terminal level only.
func (t Template) GradeLevels() []GradeLevel {
	switch t {
	case TemplateG9G12:
		return []GradeLevel{GradeLevelG9, GradeLevelG10, GradeLevelG11, GradeLevelG12}
	case TemplateG10G12:
		return []GradeLevel{GradeLevelG10, GradeLevelG11, GradeLevelG12}
	case TemplateG11G12:
		return []GradeLevel{GradeLevelG11, GradeLevelG12}
	case TemplateG12:
		return []GradeLevel{GradeLevelG12}
	default:
		return []GradeLevel{GradeLevelG12}
	}
}

// Years returns the number of academic years the template spans.
func (t Template) Years() int {
	return len(t.GradeLevels())
}

// Label returns the program name printed on transcripts.
func (t Template) Label() string {
	switch t {
	case TemplateG9G12:
		return "Grades 9-12"
	case TemplateG10G12:
		return "Grades 10-12"
	case TemplateG11G12:
		return "Grades 11-12"
	case TemplateG12:
		return "Grade 12"
	default:
		return string(t)
	}
}

// Conduct is the behavioural rating recorded per subject and grade level.
type Conduct string

const (
	ConductExcellent        Conduct = "Excellent"
	ConductGood             Conduct = "Good"
	ConductSatisfactory     Conduct = "Satisfactory"
	ConductNeedsImprovement Conduct = "Needs Improvement"
)

// ConductPriority lists conduct values in declaration order, which doubles
// as the tie-breaking priority when aggregating the dominant conduct.
var ConductPriority = []Conduct{ConductExcellent, ConductGood, ConductSatisfactory, ConductNeedsImprovement}

// Valid reports whether c is a member of the conduct enumeration.
func (c Conduct) Valid() bool {
	switch c {
	case ConductExcellent, ConductGood, ConductSatisfactory, ConductNeedsImprovement:
		return true
	}
	return false
}

// Subjects is the fixed catalog every transcript carries. Order is the
// canonical display and iteration order and must stay stable.
var Subjects = []string{
	"Amharic",
	"English",
	"Mathematics",
	"Physics",
	"Chemistry",
	"Biology",
	"Geography",
	"History",
	"Civics",
	"Economics",
	"Agriculture",
	"HPE",
	"ICT",
}

// ScoreField enumerates the writable fields of a score cell.
type ScoreField string

const (
	FieldSemester1 ScoreField = "semester1"
	FieldSemester2 ScoreField = "semester2"
	FieldConduct   ScoreField = "conduct"
)

// ScoreCell holds the two semester scores for one subject at one grade
// level together with the derived year average and total. YearAvg and
// Total are always recomputed from the semesters, never written directly.
type ScoreCell struct {
	Semester1 float64 `json:"semester1"`
	Semester2 float64 `json:"semester2"`
	YearAvg   float64 `json:"year_avg"`
	Total     float64 `json:"total"`
	Conduct   Conduct `json:"conduct"`
}

// SubjectRecord maps the grade levels implied by the student's template to
// score cells for a single subject. The map carries exactly those levels,
// no more and no fewer.
type SubjectRecord struct {
	Subject string                   `json:"subject"`
	Cells   map[GradeLevel]ScoreCell `json:"cells"`
}

// SubjectRecords is the ordered per-student record set. It is persisted as
// a JSONB column so the per-grade-level cell data round-trips losslessly.
type SubjectRecords []SubjectRecord

// Value implements driver.Valuer for JSONB storage.
func (r SubjectRecords) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage.
func (r *SubjectRecords) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported subject records source %T", src)
	}
	if len(raw) == 0 {
		*r = nil
		return nil
	}
	return json.Unmarshal(raw, r)
}

// GradeLevelTotals aggregates one grade level's column sums across all
// subjects plus the dominant conduct. Derived, never stored.
type GradeLevelTotals struct {
	GradeLevel GradeLevel `json:"grade_level"`
	Semester1  float64    `json:"semester1"`
	Semester2  float64    `json:"semester2"`
	YearAvg    float64    `json:"year_avg"`
	Total      float64    `json:"total"`
	Conduct    Conduct    `json:"conduct"`
}

// AcademicStatus categorises an average against the fixed thresholds.
type AcademicStatus string

const (
	StatusExcellent        AcademicStatus = "Excellent"
	StatusGood             AcademicStatus = "Good"
	StatusSatisfactory     AcademicStatus = "Satisfactory"
	StatusPass             AcademicStatus = "Pass"
	StatusNeedsImprovement AcademicStatus = "Needs Improvement"
)

// TranscriptSummary is the headline rollup across all subjects. The
// overall average is whole-percent; per-cell values keep two decimals.
type TranscriptSummary struct {
	OverallAverage int            `json:"overall_average"`
	Status         AcademicStatus `json:"status"`
	GradedSubjects int            `json:"graded_subjects"`
}

// Transcript bundles the editable records with their derived aggregates.
type Transcript struct {
	StudentID   string             `json:"student_id"`
	Template    Template           `json:"template"`
	GradeLevels []GradeLevel       `json:"grade_levels"`
	Records     SubjectRecords     `json:"records"`
	LevelTotals []GradeLevelTotals `json:"level_totals"`
	Summary     TranscriptSummary  `json:"summary"`
}

// TranscriptRow is the flattened per-subject line used for display and
// export. Average here is the plain mean of the two semesters, a simpler
// presentation rule than the cell-level year average.
type TranscriptRow struct {
	Subject   string         `json:"subject"`
	Semester1 float64        `json:"semester1"`
	Semester2 float64        `json:"semester2"`
	Average   float64        `json:"average"`
	Status    AcademicStatus `json:"status,omitempty"`
}

// GradeDistribution counts subjects per letter band.
type GradeDistribution struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
	D int `json:"d"`
}

// TranscriptView is the read-only projection consumed by rendering and
// export collaborators. It performs no mutation and may be rebuilt freely.
type TranscriptView struct {
	StudentID      string            `json:"student_id"`
	StudentName    string            `json:"student_name"`
	Gender         string            `json:"gender"`
	Age            int               `json:"age"`
	Program        string            `json:"program"`
	AcademicYears  string            `json:"academic_years"`
	Rows           []TranscriptRow   `json:"rows"`
	TotalSubjects  int               `json:"total_subjects"`
	OverallAverage int               `json:"overall_average"`
	Status         AcademicStatus    `json:"status"`
	Distribution   GradeDistribution `json:"distribution"`
}
