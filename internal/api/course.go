package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pot-code/lms-client/internal/domain"
)

// AllCourses fetch the full course catalog; no authentication required
func (c *Client) AllCourses(ctx context.Context) ([]domain.Course, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/course/getAllCourses", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var courses []domain.Course
	if err := decodeJSON(body, &courses, "course catalog"); err != nil {
		return nil, err
	}
	return courses, nil
}

// CoursesByAuthor fetch the courses owned by the token's author
func (c *Client) CoursesByAuthor(ctx context.Context, token string) ([]domain.Course, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/course/getCoursesByAuthor", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(withBearer(req, token))
	if err != nil {
		return nil, err
	}

	var courses []domain.Course
	if err := decodeJSON(body, &courses, "author courses"); err != nil {
		return nil, err
	}
	return courses, nil
}

// AddCourse create a course owned by the token's author
func (c *Client) AddCourse(ctx context.Context, token string, course domain.NewCourse) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/course/add", course)
	if err != nil {
		return err
	}
	_, err = c.do(withBearer(req, token))
	return err
}

// VideosByCourse fetch the flat video list for a course, each record
// embedding its module and the module's course
func (c *Client) VideosByCourse(ctx context.Context, token string, courseID int) ([]domain.Video, error) {
	path := fmt.Sprintf("/video/getAllVideos/%d", courseID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(withBearer(req, token))
	if err != nil {
		return nil, err
	}

	var videos []domain.Video
	if err := decodeJSON(body, &videos, "course videos"); err != nil {
		return nil, err
	}
	return videos, nil
}

type reviewRecord struct {
	ID            int     `json:"id"`
	Comments      string  `json:"comments"`
	Rating        float64 `json:"rating"`
	LearnerCourse *struct {
		Learner *struct {
			Name string `json:"name"`
		} `json:"learner"`
	} `json:"learnerCourse"`
}

// ReviewsByCourse fetch reviews for a course
func (c *Client) ReviewsByCourse(ctx context.Context, token string, courseID int) ([]domain.Review, error) {
	path := fmt.Sprintf("/review/getReviewsByCourse/%d", courseID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(withBearer(req, token))
	if err != nil {
		return nil, err
	}

	var records []reviewRecord
	if err := decodeJSON(body, &records, "course reviews"); err != nil {
		return nil, err
	}
	reviews := make([]domain.Review, len(records))
	for i, r := range records {
		review := domain.Review{ID: r.ID, Comments: r.Comments, Rating: r.Rating}
		if r.LearnerCourse != nil && r.LearnerCourse.Learner != nil {
			review.LearnerName = r.LearnerCourse.Learner.Name
		}
		reviews[i] = review
	}
	return reviews, nil
}
