package course

import (
	"context"

	"github.com/pot-code/lms-client/internal/domain"
	"github.com/pot-code/lms-client/internal/infrastructure/validate"
	"github.com/pot-code/lms-client/internal/session"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// API backend calls the service depends on
type API interface {
	CoursesByAuthor(ctx context.Context, token string) ([]domain.Course, error)
	AddCourse(ctx context.Context, token string, course domain.NewCourse) error
	VideosByCourse(ctx context.Context, token string, courseID int) ([]domain.Video, error)
	ReviewsByCourse(ctx context.Context, token string, courseID int) ([]domain.Review, error)
	EnrollmentStats(ctx context.Context, token string) ([]domain.EnrollmentStat, error)
}

// Service author-facing course operations plus content aggregation
type Service struct {
	api       API
	sessions  *session.Manager
	validator validate.Validator
	logger    *zap.Logger
}

// NewService create a course service
func NewService(api API, sessions *session.Manager, validator validate.Validator, logger *zap.Logger) *Service {
	return &Service{
		api:       api,
		sessions:  sessions,
		validator: validator,
		logger:    logger,
	}
}

// CoursesByAuthor list the courses owned by the authenticated author
func (s *Service) CoursesByAuthor(ctx context.Context) ([]domain.Course, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "Service.CoursesByAuthor", "service")
	defer apmSpan.End()

	token, err := s.sessions.Token()
	if err != nil {
		return nil, err
	}
	courses, err := s.api.CoursesByAuthor(ctx, token)
	if err != nil {
		return nil, s.sessions.Guard(err)
	}
	return courses, nil
}

// Add create a course after local validation
func (s *Service) Add(ctx context.Context, nc domain.NewCourse) error {
	apmSpan, ctx := apm.StartSpan(ctx, "Service.Add", "service")
	defer apmSpan.End()

	if fields := s.validator.Struct(nc); fields != nil {
		return domain.NewValidationError(toDomainFields(fields)...)
	}

	token, err := s.sessions.Token()
	if err != nil {
		return err
	}
	if err := s.api.AddCourse(ctx, token, nc); err != nil {
		return s.sessions.Guard(err)
	}
	s.logger.Info("course added", zap.String("course.title", nc.Title))
	return nil
}

// Content fetch a course's video list and aggregate it into the module
// tree
func (s *Service) Content(ctx context.Context, courseID int) (*Content, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "Service.Content", "service")
	defer apmSpan.End()

	token, err := s.sessions.Token()
	if err != nil {
		return nil, err
	}
	videos, err := s.api.VideosByCourse(ctx, token, courseID)
	if err != nil {
		return nil, s.sessions.Guard(err)
	}
	return Aggregate(videos)
}

// Reviews list the reviews of a course
func (s *Service) Reviews(ctx context.Context, courseID int) ([]domain.Review, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "Service.Reviews", "service")
	defer apmSpan.End()

	token, err := s.sessions.Token()
	if err != nil {
		return nil, err
	}
	reviews, err := s.api.ReviewsByCourse(ctx, token, courseID)
	if err != nil {
		return nil, s.sessions.Guard(err)
	}
	return reviews, nil
}

// Stats fetch per-course enrollment counts
func (s *Service) Stats(ctx context.Context) ([]domain.EnrollmentStat, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "Service.Stats", "service")
	defer apmSpan.End()

	token, err := s.sessions.Token()
	if err != nil {
		return nil, err
	}
	stats, err := s.api.EnrollmentStats(ctx, token)
	if err != nil {
		return nil, s.sessions.Guard(err)
	}
	return stats, nil
}

func toDomainFields(fields []*validate.FieldError) []*domain.FieldError {
	out := make([]*domain.FieldError, len(fields))
	for i, f := range fields {
		out[i] = &domain.FieldError{Field: f.Domain, Reason: f.Reason}
	}
	return out
}
