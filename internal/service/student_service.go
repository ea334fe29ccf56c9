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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Gender   string          `json:"gender" validate:"required,oneof=Male Female"`
	Age      int             `json:"age" validate:"required,min=1,max=100"`
	Template models.Template `json:"template" validate:"required,oneof=G9-G12 G10-G12 G11-G12 G12"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Gender   string          `json:"gender" validate:"required,oneof=Male Female"`
	Age      int             `json:"age" validate:"required,min=1,max=100"`
	Template models.Template `json:"template" validate:"required,oneof=G9-G12 G10-G12 G11-G12 G12"`
}

// StudentService handles student identity and template lifecycle.
type StudentService struct {
	repo      studentRepository
	cache     viewCache
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache viewCache, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student with initialized grade records.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student.Grades = ReconcileRecords(student.Template, student.Grades)
	return student, nil
}

// Create registers a new student with default-initialized records for the
// selected template and a derived academic-year span.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		FullName:      req.FullName,
		Gender:        req.Gender,
		Age:           req.Age,
		Template:      req.Template,
		AcademicYears: s.academicYears(req.Template),
		Grades:        ReconcileRecords(req.Template, nil),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies identity fields and, when the template changes,
// re-initializes the record set. Re-initialization is destructive: levels
// both templates share carry their saved cells over, dropped levels are
// discarded for good.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if student.Template != req.Template {
		s.logger.Info("template changed, reinitializing records",
			zap.String("student_id", id),
			zap.String("from", string(student.Template)),
			zap.String("to", string(req.Template)),
		)
		student.Grades = ReconcileRecords(req.Template, student.Grades)
		student.AcademicYears = s.academicYears(req.Template)
	}
	student.FullName = req.FullName
	student.Gender = req.Gender
	student.Age = req.Age
	student.Template = req.Template

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidateView(ctx, id)
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.invalidateView(ctx, id)
	return nil
}

// academicYears derives the span string from the template length, counting
// back from the current year.
func (s *StudentService) academicYears(template models.Template) string {
	currentYear := s.now().UTC().Year()
	startYear := currentYear - template.Years() + 1
	return fmt.Sprintf("%d-%d", startYear, currentYear)
}

func (s *StudentService) invalidateView(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, viewCacheKey(id)); err != nil {
		s.logger.Warn("view cache invalidation failed", zap.String("student_id", id), zap.Error(err))
	}
}
