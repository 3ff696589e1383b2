package enrollment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/pot-code/lms-client/internal/domain"
	"github.com/pot-code/lms-client/internal/identity"
	"github.com/pot-code/lms-client/internal/infrastructure/driver"
	"github.com/pot-code/lms-client/internal/session"
	"go.uber.org/zap"
)

type stubSessionAPI struct{}

func (stubSessionAPI) Token(ctx context.Context, username, password string) (string, error) {
	return "tok", nil
}

func (stubSessionAPI) UserDetails(ctx context.Context, token string) (string, error) {
	return "LEARNER", nil
}

type fakeBackend struct {
	courses     []domain.Course
	coursesErr  error
	enrolled    []domain.Enrollment
	enrolledErr error

	enrollFn    func(courseID int) error
	enrollCalls int
}

func (f *fakeBackend) AllCourses(ctx context.Context) ([]domain.Course, error) {
	return f.courses, f.coursesErr
}

func (f *fakeBackend) LearnerCourses(ctx context.Context, token string) ([]domain.Enrollment, error) {
	return f.enrolled, f.enrolledErr
}

func (f *fakeBackend) Enroll(ctx context.Context, token string, learnerID string, courseID int) error {
	f.enrollCalls++
	if f.enrollFn != nil {
		return f.enrollFn(courseID)
	}
	return nil
}

func newStore(t *testing.T, backend *fakeBackend) (*Store, *session.Manager, *driver.MemoryStore) {
	t.Helper()
	kv := driver.NewMemoryStore()
	sessions := session.NewManager(stubSessionAPI{}, kv, zap.NewNop())
	if _, err := sessions.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	resolver := identity.NewResolver(kv, zap.NewNop())
	return NewStore(backend, sessions, resolver, zap.NewNop()), sessions, kv
}

func TestLoadBuildsMembership(t *testing.T) {
	backend := &fakeBackend{
		courses: []domain.Course{{ID: 1, Title: "Go"}, {ID: 2, Title: "Rust"}},
		enrolled: []domain.Enrollment{
			{CourseID: 2, LearnerID: "7", Progress: 40},
		},
	}
	store, _, _ := newStore(t, backend)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !store.IsEnrolled(2) {
		t.Fatal("course 2 must be marked enrolled")
	}
	if store.IsEnrolled(1) {
		t.Fatal("course 1 must not be marked enrolled")
	}
	if got := len(store.Courses()); got != 2 {
		t.Fatalf("catalog size = %d, want 2", got)
	}
}

func TestLoadFailureLeavesStateUntouched(t *testing.T) {
	backend := &fakeBackend{
		courses:  []domain.Course{{ID: 1, Title: "Go"}},
		enrolled: []domain.Enrollment{{CourseID: 1, LearnerID: "7", Progress: 10}},
	}
	store, _, _ := newStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := store.Enrollments()

	backend.enrolledErr = &domain.ServerError{Status: 500, Message: "boom"}
	err := store.Load(context.Background())
	var serverErr *domain.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Load() error = %v, want ServerError", err)
	}

	if !reflect.DeepEqual(store.Enrollments(), before) {
		t.Fatal("failed load must leave the enrollment set unchanged")
	}
	if !store.IsEnrolled(1) {
		t.Fatal("failed load must leave membership unchanged")
	}
}

func TestLoadDeduplicatesEnrollments(t *testing.T) {
	backend := &fakeBackend{
		enrolled: []domain.Enrollment{
			{CourseID: 3, LearnerID: "7", Progress: 10},
			{CourseID: 3, LearnerID: "7", Progress: 20},
		},
	}
	store, _, _ := newStore(t, backend)

	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	enrollments := store.Enrollments()
	if len(enrollments) != 1 {
		t.Fatalf("enrollment set size = %d, want 1 entry per course", len(enrollments))
	}
	if enrollments[0].Progress != 10 {
		t.Fatal("dedup must keep the first record")
	}
}

func TestEnrollMissingIdentity(t *testing.T) {
	backend := &fakeBackend{}
	store, _, _ := newStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := store.Enroll(context.Background(), 5)
	if !errors.Is(err, domain.ErrMissingIdentity) {
		t.Fatalf("Enroll() error = %v, want ErrMissingIdentity", err)
	}
	if backend.enrollCalls != 0 {
		t.Fatal("missing identity must not reach the network")
	}
	if len(store.Enrollments()) != 0 {
		t.Fatal("enrollment set must stay empty")
	}
}

func TestEnrollSuccess(t *testing.T) {
	backend := &fakeBackend{}
	store, _, kv := newStore(t, backend)
	kv.SetEX(identity.CacheKey, "7", 0)
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := store.Enroll(context.Background(), 5); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if !store.IsEnrolled(5) {
		t.Fatal("membership for course 5 not set")
	}
	enrollments := store.Enrollments()
	if len(enrollments) != 1 {
		t.Fatalf("enrollment set size = %d, want 1", len(enrollments))
	}
	got := enrollments[0]
	if got.CourseID != 5 || got.LearnerID != "7" || got.Progress != 0 {
		t.Fatalf("enrollment = %+v, want course 5 learner 7 progress 0", got)
	}
}

func TestEnrollRejectsConcurrentDuplicate(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		enrollFn: func(courseID int) error {
			close(started)
			<-release
			return nil
		},
	}
	store, _, kv := newStore(t, backend)
	kv.SetEX(identity.CacheKey, "7", 0)

	done := make(chan error, 1)
	go func() {
		done <- store.Enroll(context.Background(), 5)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first enroll never reached the backend")
	}

	if err := store.Enroll(context.Background(), 5); !errors.Is(err, ErrEnrollPending) {
		t.Fatalf("second Enroll() error = %v, want ErrEnrollPending", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Enroll() error = %v", err)
	}
	if got := len(store.Enrollments()); got != 1 {
		t.Fatalf("enrollment set size = %d, want exactly 1", got)
	}
}

func TestEnrollBackendFailureLeavesStateUntouched(t *testing.T) {
	backend := &fakeBackend{
		enrollFn: func(courseID int) error {
			return &domain.ServerError{Status: 500, Message: "quota exceeded"}
		},
	}
	store, _, kv := newStore(t, backend)
	kv.SetEX(identity.CacheKey, "7", 0)

	err := store.Enroll(context.Background(), 5)
	var enrollErr *domain.EnrollmentError
	if !errors.As(err, &enrollErr) {
		t.Fatalf("Enroll() error = %v, want EnrollmentError", err)
	}
	if enrollErr.CourseID != 5 {
		t.Fatalf("EnrollmentError course = %d, want 5", enrollErr.CourseID)
	}
	if store.IsEnrolled(5) || len(store.Enrollments()) != 0 {
		t.Fatal("failed enroll must not mutate state")
	}

	// the guard is released, a manual retry is allowed
	backend.enrollFn = nil
	if err := store.Enroll(context.Background(), 5); err != nil {
		t.Fatalf("retry after failure error = %v", err)
	}
}

func TestEnrollAuthFailureTearsDownSession(t *testing.T) {
	backend := &fakeBackend{
		enrollFn: func(courseID int) error {
			return &domain.AuthError{Status: 401}
		},
	}
	store, sessions, kv := newStore(t, backend)
	kv.SetEX(identity.CacheKey, "7", 0)

	err := store.Enroll(context.Background(), 5)
	if !domain.IsAuthError(err) {
		t.Fatalf("Enroll() error = %v, want AuthError", err)
	}
	if _, ok := sessions.Current(); ok {
		t.Fatal("session must be destroyed after an authorization failure")
	}
}

func TestEnrollAlreadyEnrolledIsNoop(t *testing.T) {
	backend := &fakeBackend{
		enrolled: []domain.Enrollment{{CourseID: 5, LearnerID: "7", Progress: 50}},
	}
	store, _, _ := newStore(t, backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := store.Enroll(context.Background(), 5); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if backend.enrollCalls != 0 {
		t.Fatal("enrolling an already enrolled course must not reach the network")
	}
	if got := len(store.Enrollments()); got != 1 {
		t.Fatalf("enrollment set size = %d, want 1", got)
	}
}
