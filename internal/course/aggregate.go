package course

import (
	"fmt"

	"github.com/pot-code/lms-client/internal/domain"
)

// Content the course tree reconstructed from a flat video list
type Content struct {
	Course         domain.Course
	Modules        []domain.Module
	VideosByModule map[int][]domain.Video
}

// Aggregate rebuild the Course → Module → Video hierarchy from the flat
// video records the backend serves. Pure and idempotent: the same input
// sequence always yields the same output.
//
// Modules are listed once each, in order of first appearance in the video
// sequence; videos are grouped by module id preserving input order. Every
// module in one batch must belong to the same course, a divergent batch is
// rejected rather than silently picking a course.
func Aggregate(videos []domain.Video) (*Content, error) {
	content := &Content{
		VideosByModule: make(map[int][]domain.Video),
	}
	seen := make(map[int]struct{})
	haveCourse := false

	for _, v := range videos {
		mod := v.Module
		if !haveCourse {
			content.Course = mod.Course
			haveCourse = true
		} else if mod.Course.ID != content.Course.ID {
			return nil, &domain.DataShapeError{
				Detail: fmt.Sprintf("video batch spans courses %d and %d",
					content.Course.ID, mod.Course.ID),
			}
		}
		if _, ok := seen[mod.ID]; !ok {
			seen[mod.ID] = struct{}{}
			content.Modules = append(content.Modules, mod)
		}
		content.VideosByModule[mod.ID] = append(content.VideosByModule[mod.ID], v)
	}
	return content, nil
}
