package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pot-code/lms-client/internal/domain"
)

type enrolledCourseRecord struct {
	ID        int             `json:"id"`
	LearnerID json.RawMessage `json:"learnerId"`
	Progress  float64         `json:"progress"`
}

// LearnerCourses fetch the authoritative enrollment list of the token's
// learner. Each backend record is an enrolled course carrying the learner
// id and progress; only the enrollment fields are kept.
func (c *Client) LearnerCourses(ctx context.Context, token string) ([]domain.Enrollment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/learner/courses", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(withBearer(req, token))
	if err != nil {
		return nil, err
	}

	var records []enrolledCourseRecord
	if err := decodeJSON(body, &records, "learner courses"); err != nil {
		return nil, err
	}
	enrollments := make([]domain.Enrollment, len(records))
	for i, r := range records {
		enrollments[i] = domain.Enrollment{
			CourseID:  r.ID,
			LearnerID: scalarString(r.LearnerID),
			Progress:  r.Progress,
		}
	}
	return enrollments, nil
}

// Enroll register the learner in a course; empty request body
func (c *Client) Enroll(ctx context.Context, token string, learnerID string, courseID int) error {
	path := fmt.Sprintf("/learner/enroll/course/%s/%d", learnerID, courseID)
	req, err := c.newJSONRequest(ctx, http.MethodPost, path, struct{}{})
	if err != nil {
		return err
	}
	_, err = c.do(withBearer(req, token))
	return err
}

// EnrollmentStats fetch enrollment counts per course. The backend answers
// with parallel `courseTitles` and `enrollments` arrays; they are zipped
// here and a length mismatch is rejected as a shape error.
func (c *Client) EnrollmentStats(ctx context.Context, token string) ([]domain.EnrollmentStat, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/learner/course/getEnrollments", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(withBearer(req, token))
	if err != nil {
		return nil, err
	}

	var payload struct {
		CourseTitles []string `json:"courseTitles"`
		Enrollments  []int    `json:"enrollments"`
	}
	if err := decodeJSON(body, &payload, "enrollment stats"); err != nil {
		return nil, err
	}
	if len(payload.CourseTitles) != len(payload.Enrollments) {
		return nil, &domain.DataShapeError{
			Detail: fmt.Sprintf("enrollment stats arrays diverge: %d titles, %d counts",
				len(payload.CourseTitles), len(payload.Enrollments)),
		}
	}
	stats := make([]domain.EnrollmentStat, len(payload.CourseTitles))
	for i, title := range payload.CourseTitles {
		stats[i] = domain.EnrollmentStat{CourseTitle: title, Enrollments: payload.Enrollments[i]}
	}
	return stats, nil
}
