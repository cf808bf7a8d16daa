package core

import "fmt"

// Eligibility is the completion snapshot for one (subject, course) pair,
// recomputed on every call since progress can change between requests.
type Eligibility struct {
	Completed int64
	Total     int64
	Eligible  bool
}

// EvaluateEligibility derives certificate eligibility from chapter counts.
// A course with no chapters is never eligible. Never mutates state.
func (e *Engine) EvaluateEligibility(id Identity, courseID uint) (Eligibility, error) {
	course, err := e.catalog.GetCourse(courseID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return Eligibility{}, ErrCourseNotFound
	}

	total, err := e.ledger.CountChapters(courseID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("count chapters: %w", err)
	}
	completed, err := e.ledger.CountCompleted(id.SubjectID, courseID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("count completed: %w", err)
	}

	return Eligibility{
		Completed: completed,
		Total:     total,
		Eligible:  total > 0 && completed >= total,
	}, nil
}
