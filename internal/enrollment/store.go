package enrollment

import (
	"context"
	"errors"
	"sync"

	"github.com/pot-code/lms-client/internal/domain"
	"github.com/pot-code/lms-client/internal/identity"
	"github.com/pot-code/lms-client/internal/session"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// ErrEnrollPending an enroll call for this course is already in flight
var ErrEnrollPending = errors.New("enrollment already in flight for this course")

// API backend calls the store depends on
type API interface {
	AllCourses(ctx context.Context) ([]domain.Course, error)
	LearnerCourses(ctx context.Context, token string) ([]domain.Enrollment, error)
	Enroll(ctx context.Context, token string, learnerID string, courseID int) error
}

// Store holds the authoritative enrollment state plus locally applied
// optimistic updates. Local mutations happen only after server
// acknowledgment, so there is no rollback path to maintain. The enrollment
// set never contains two entries for the same course id.
type Store struct {
	api      API
	sessions *session.Manager
	ids      *identity.Resolver
	logger   *zap.Logger

	mu          sync.Mutex
	catalog     []domain.Course
	enrollments []domain.Enrollment
	membership  map[int]bool
	inflight    map[int]struct{}
}

// NewStore create an enrollment store
func NewStore(api API, sessions *session.Manager, ids *identity.Resolver, logger *zap.Logger) *Store {
	return &Store{
		api:        api,
		sessions:   sessions,
		ids:        ids,
		logger:     logger,
		membership: make(map[int]bool),
		inflight:   make(map[int]struct{}),
	}
}

// Load fetch the course catalog and the caller's enrollment list. The two
// fetches run as independent tasks with no ordering between them; their
// results are committed together only when both succeed, so a failure
// leaves previously loaded state untouched.
func (s *Store) Load(ctx context.Context) error {
	apmSpan, ctx := apm.StartSpan(ctx, "Store.Load", "service")
	defer apmSpan.End()

	token, err := s.sessions.Token()
	if err != nil {
		return err
	}

	var (
		wg          sync.WaitGroup
		catalog     []domain.Course
		enrollments []domain.Enrollment
		catalogErr  error
		enrollErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		catalog, catalogErr = s.api.AllCourses(ctx)
	}()
	go func() {
		defer wg.Done()
		enrollments, enrollErr = s.api.LearnerCourses(ctx, token)
	}()
	wg.Wait()

	if catalogErr != nil {
		return s.sessions.Guard(catalogErr)
	}
	if enrollErr != nil {
		return s.sessions.Guard(enrollErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog
	s.enrollments = dedupe(enrollments)
	s.membership = make(map[int]bool, len(s.enrollments))
	for _, e := range s.enrollments {
		s.membership[e.CourseID] = true
	}
	s.logger.Debug("enrollment state loaded",
		zap.Int("courses", len(catalog)),
		zap.Int("enrollments", len(s.enrollments)),
	)
	return nil
}

// Enroll register the learner in a course. Preconditions: an authenticated
// session and a resolvable learner id; a missing identity fails before any
// network call. The local enrollment (progress 0) and the membership flag
// are applied only after the server acknowledges.
func (s *Store) Enroll(ctx context.Context, courseID int) error {
	apmSpan, ctx := apm.StartSpan(ctx, "Store.Enroll", "service")
	defer apmSpan.End()

	token, err := s.sessions.Token()
	if err != nil {
		return err
	}
	learnerID, err := s.ids.Resolve(s.Enrollments())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return domain.ErrMissingIdentity
		}
		return err
	}

	s.mu.Lock()
	if s.membership[courseID] {
		// already enrolled, nothing to do
		s.mu.Unlock()
		return nil
	}
	if _, pending := s.inflight[courseID]; pending {
		s.mu.Unlock()
		return ErrEnrollPending
	}
	s.inflight[courseID] = struct{}{}
	s.mu.Unlock()

	err = s.api.Enroll(ctx, token, learnerID, courseID)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, courseID)

	if err != nil {
		if domain.IsAuthError(err) {
			return s.sessions.Guard(err)
		}
		return &domain.EnrollmentError{CourseID: courseID, Err: err}
	}
	// a caller torn down mid-flight must not see its stale completion
	// applied
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if !s.membership[courseID] {
		s.enrollments = append(s.enrollments, domain.Enrollment{
			CourseID:  courseID,
			LearnerID: learnerID,
			Progress:  0,
		})
		s.membership[courseID] = true
	}
	s.logger.Info("enrolled in course", zap.Int("course.id", courseID))
	return nil
}

// Courses return a copy of the loaded catalog
func (s *Store) Courses() []domain.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Course, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Enrollments return a copy of the enrollment set
func (s *Store) Enrollments() []domain.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Enrollment, len(s.enrollments))
	copy(out, s.enrollments)
	return out
}

// IsEnrolled report membership for a course id
func (s *Store) IsEnrolled(courseID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.membership[courseID]
}

// dedupe keep the first enrollment per course id, preserving order
func dedupe(enrollments []domain.Enrollment) []domain.Enrollment {
	seen := make(map[int]struct{}, len(enrollments))
	out := enrollments[:0:0]
	for _, e := range enrollments {
		if _, ok := seen[e.CourseID]; ok {
			continue
		}
		seen[e.CourseID] = struct{}{}
		out = append(out, e)
	}
	return out
}
