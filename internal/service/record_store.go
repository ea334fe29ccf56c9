package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-api/internal/models"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
)

// RecordStore owns the authoritative in-memory record set for the student
// currently being edited. A single logical editor drives it; switching
// student or template replaces the contents wholesale, so any aggregation
// computed against the old set is discarded rather than merged.
type RecordStore struct {
	logger  *zap.Logger
	student *models.Student
	records models.SubjectRecords
}

// NewRecordStore constructs an empty record store.
func NewRecordStore(logger *zap.Logger) *RecordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordStore{logger: logger}
}

// Initialize loads a student, reconciling the fixed subject catalog
// against the template's grade levels and any previously saved grades.
// A nil student clears the store: dependents see an explicit empty state
// instead of an error while a selection is pending.
func (s *RecordStore) Initialize(student *models.Student) models.SubjectRecords {
	if student == nil {
		s.student = nil
		s.records = nil
		return nil
	}
	s.student = student
	s.records = ReconcileRecords(student.Template, student.Grades)
	s.logger.Debug("record store initialized",
		zap.String("student_id", student.ID),
		zap.String("template", string(student.Template)),
		zap.Int("subjects", len(s.records)),
	)
	return s.records
}

// Apply delegates a cell update to the aggregation engine. Structural
// errors leave the store untouched.
func (s *RecordStore) Apply(update CellUpdate) error {
	if s.student == nil {
		return appErrors.Clone(appErrors.ErrValidation, "no student loaded")
	}
	return ApplyCellUpdate(s.records, update)
}

// Records exposes the current record set.
func (s *RecordStore) Records() models.SubjectRecords {
	return s.records
}

// Snapshot merges the current records back into the student value for
// handoff to persistence.
func (s *RecordStore) Snapshot() (*models.Student, error) {
	if s.student == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no student loaded")
	}
	snapshot := *s.student
	snapshot.Grades = s.records
	return &snapshot, nil
}
