package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pot-code/lms-client/internal/domain"
	"go.uber.org/zap"
)

type staticID struct{}

func (staticID) Generate() (string, error) { return "req-1", nil }

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second, zap.NewNop(), staticID{}), srv
}

func TestTokenUsesBasicAuth(t *testing.T) {
	var authHeader string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Write([]byte(`{"token":"tok-1"}`))
	}))
	defer srv.Close()

	token, err := client.Token(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("token = %q, want tok-1", token)
	}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:secret"))
	if authHeader != want {
		t.Fatalf("auth header = %q, want %q", authHeader, want)
	}
}

func TestTokenMissingFromResponse(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := client.Token(context.Background(), "alice", "secret")
	var shapeErr *domain.DataShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("Token() error = %v, want DataShapeError", err)
	}
}

func TestUserDetailsShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "nested role", body: `{"user":{"role":"AUTHOR"}}`, want: "AUTHOR"},
		{name: "top-level role", body: `{"role":"LEARNER"}`, want: "LEARNER"},
		{name: "nested wins over top-level", body: `{"role":"LEARNER","user":{"role":"AUTHOR"}}`, want: "AUTHOR"},
		{name: "missing role", body: `{"username":"alice"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bearer string
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				bearer = r.Header.Get("Authorization")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			role, err := client.UserDetails(context.Background(), "tok")
			if tt.wantErr {
				var shapeErr *domain.DataShapeError
				if !errors.As(err, &shapeErr) {
					t.Fatalf("UserDetails() error = %v, want DataShapeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UserDetails() error = %v", err)
			}
			if role != tt.want {
				t.Fatalf("role = %q, want %q", role, tt.want)
			}
			if bearer != "Bearer tok" {
				t.Fatalf("auth header = %q, want bearer token", bearer)
			}
		})
	}
}

func TestUnauthorizedMapsToAuthError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := client.CoursesByAuthor(context.Background(), "revoked")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want AuthError", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", authErr.Status)
	}
}

func TestServerErrorPrefersMessageField(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "json message", body: `{"message":"course limit reached"}`, want: "course limit reached"},
		{name: "plain text body", body: `course limit reached`, want: "course limit reached"},
		{name: "no detail", body: ``, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := client.AddCourse(context.Background(), "tok", domain.NewCourse{Title: "Go"})
			var serverErr *domain.ServerError
			if !errors.As(err, &serverErr) {
				t.Fatalf("error = %v, want ServerError", err)
			}
			if serverErr.Message != tt.want {
				t.Fatalf("message = %q, want %q", serverErr.Message, tt.want)
			}
			if serverErr.Status != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", serverErr.Status)
			}
		})
	}
}

func TestUnreachableBackendMapsToNetworkError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := client.AllCourses(context.Background())
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
}

func TestSignupIDShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "id field", body: `{"id":12}`, want: "12"},
		{name: "userId field", body: `{"userId":"u-12"}`, want: "u-12"},
		{name: "bare number", body: `12`, want: "12"},
		{name: "bare string", body: `"u-12"`, want: "u-12"},
		{name: "no id", body: `{}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeUserID([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("decodeUserID(%s) = %q, want error", tt.body, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeUserID(%s) error = %v", tt.body, err)
			}
			if got != tt.want {
				t.Fatalf("decodeUserID(%s) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestEnrollmentStatsZipsParallelArrays(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"courseTitles":["Go","Rust"],"enrollments":[12,3]}`))
	}))
	defer srv.Close()

	stats, err := client.EnrollmentStats(context.Background(), "tok")
	if err != nil {
		t.Fatalf("EnrollmentStats() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats size = %d, want 2", len(stats))
	}
	if stats[0].CourseTitle != "Go" || stats[0].Enrollments != 12 {
		t.Fatalf("stats[0] = %+v, want Go/12", stats[0])
	}
}

func TestEnrollmentStatsLengthMismatch(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"courseTitles":["Go","Rust"],"enrollments":[12]}`))
	}))
	defer srv.Close()

	_, err := client.EnrollmentStats(context.Background(), "tok")
	var shapeErr *domain.DataShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("error = %v, want DataShapeError", err)
	}
}

func TestEnrollPathAndEmptyBody(t *testing.T) {
	var path string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := client.Enroll(context.Background(), "tok", "7", 5); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if path != "/learner/enroll/course/7/5" {
		t.Fatalf("path = %q, want /learner/enroll/course/7/5", path)
	}
}

func TestLearnerCoursesDecodesEnrollments(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":5,"learnerId":7,"progress":40,"title":"Go"}]`))
	}))
	defer srv.Close()

	enrollments, err := client.LearnerCourses(context.Background(), "tok")
	if err != nil {
		t.Fatalf("LearnerCourses() error = %v", err)
	}
	if len(enrollments) != 1 {
		t.Fatalf("enrollments size = %d, want 1", len(enrollments))
	}
	got := enrollments[0]
	if got.CourseID != 5 || got.LearnerID != "7" || got.Progress != 40 {
		t.Fatalf("enrollment = %+v, want course 5 learner 7 progress 40", got)
	}
}
