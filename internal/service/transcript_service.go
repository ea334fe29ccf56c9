package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-api/internal/models"
	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
)

type transcriptStudentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type storeObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
	ObserveDBQuery(label string, duration time.Duration)
}

// TranscriptService orchestrates record initialization, validated cell
// updates and aggregation for a student's transcript.
type TranscriptService struct {
	students  transcriptStudentRepo
	cache     viewCache
	views     *ViewService
	metrics   storeObserver
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewTranscriptService constructs a TranscriptService.
func NewTranscriptService(students transcriptStudentRepo, cache viewCache, views *ViewService, metrics storeObserver, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *TranscriptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if views == nil {
		views = NewViewService()
	}
	return &TranscriptService{
		students:  students,
		cache:     cache,
		views:     views,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Get returns the student's initialized records together with per-level
// totals and the overall summary. Records are reconciled on read so a
// template change is always reflected before anything is displayed.
func (s *TranscriptService) Get(ctx context.Context, studentID string) (*models.Transcript, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	store := NewRecordStore(s.logger)
	records := store.Initialize(student)
	return s.assemble(student, records), nil
}

// UpdateCell applies one validated cell write and persists the merged
// student. Structural-address failures abort before any persistence, so
// stored state is never corrupted by a stale caller.
func (s *TranscriptService) UpdateCell(ctx context.Context, studentID string, update CellUpdate) (*models.Transcript, error) {
	if err := s.validator.Struct(update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell update")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	store := NewRecordStore(s.logger)
	store.Initialize(student)
	if err := store.Apply(update); err != nil {
		s.logger.Warn("cell update rejected",
			zap.String("student_id", studentID),
			zap.Int("subject_index", update.SubjectIndex),
			zap.String("grade_level", string(update.GradeLevel)),
			zap.Error(err),
		)
		return nil, err
	}

	snapshot, err := store.Snapshot()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	err = s.students.Update(ctx, snapshot)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("students.update", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grades")
	}
	s.invalidateView(ctx, studentID)

	return s.assemble(snapshot, snapshot.Grades), nil
}

// View returns the cached transcript view, rebuilding it on miss.
func (s *TranscriptService) View(ctx context.Context, studentID string) (*models.TranscriptView, error) {
	key := viewCacheKey(studentID)
	if s.cache != nil {
		start := time.Now()
		var cached models.TranscriptView
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true, time.Since(start))
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, time.Since(start))
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("transcript view cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	store := NewRecordStore(s.logger)
	student.Grades = store.Initialize(student)
	view := s.views.Build(student)

	if s.cache != nil {
		start := time.Now()
		if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
			s.logger.Warn("transcript view cache write failed", zap.String("student_id", studentID), zap.Error(err))
		} else if s.metrics != nil {
			s.metrics.ObserveCacheWrite(time.Since(start))
		}
	}
	return view, nil
}

func (s *TranscriptService) assemble(student *models.Student, records models.SubjectRecords) *models.Transcript {
	levels := student.Template.GradeLevels()
	totals := make([]models.GradeLevelTotals, 0, len(levels))
	for _, level := range levels {
		totals = append(totals, LevelTotals(records, level))
	}
	return &models.Transcript{
		StudentID:   student.ID,
		Template:    student.Template,
		GradeLevels: levels,
		Records:     records,
		LevelTotals: totals,
		Summary:     OverallSummary(SubjectAverages(records)),
	}
}

func (s *TranscriptService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	start := time.Now()
	student, err := s.students.FindByID(ctx, id)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("students.find_by_id", time.Since(start))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *TranscriptService) invalidateView(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, viewCacheKey(studentID)); err != nil {
		s.logger.Warn("transcript view cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

func viewCacheKey(studentID string) string {
	return fmt.Sprintf("transcript:view:%s", studentID)
}
