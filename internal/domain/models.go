package domain

// Author course author profile
type Author struct {
	ID         int    `json:"id,omitempty"`
	FullName   string `json:"fullName"`
	Contact    string `json:"contact,omitempty"`
	Website    string `json:"website,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// Course catalog entry
type Course struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Credits     float64 `json:"credits"`
	Image       string  `json:"courseImage,omitempty"`
	Description string  `json:"description,omitempty"`
	Author      *Author `json:"author,omitempty"`
}

// Module groups videos inside a course. The backend never serves modules as
// a standalone collection, they arrive embedded in video records.
type Module struct {
	ID     int    `json:"id"`
	Title  string `json:"moduleTitle"`
	Course Course `json:"course"`
}

// Video the only content entity the backend returns directly
type Video struct {
	ID       int     `json:"id"`
	Title    string  `json:"videoTitle"`
	PlayTime float64 `json:"playTime"` // minutes
	Module   Module  `json:"module"`
}

// Enrollment a learner's registration in a course
type Enrollment struct {
	CourseID  int
	LearnerID string
	Progress  float64
}

// Review learner feedback on a course
type Review struct {
	ID          int
	Comments    string
	Rating      float64
	LearnerName string
}

// EnrollmentStat enrollment count for one course title
type EnrollmentStat struct {
	CourseTitle string
	Enrollments int
}

// NewCourse payload for creating a course
type NewCourse struct {
	Title   string  `json:"title" validate:"required"`
	Credits float64 `json:"credits" validate:"gte=0"`
	Image   string  `json:"courseImage"`
}
