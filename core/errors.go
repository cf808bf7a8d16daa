package core

import (
	"errors"
	"fmt"
)

// Domain error kinds. Handlers map these to HTTP statuses; anything not in
// this set is an infrastructure failure and becomes a 500.
var (
	// ErrMissingCredential means no credential was presented at all.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential means a credential was presented but is
	// malformed, expired, or fails verification. Logged distinctly from
	// ErrMissingCredential, same client-visible treatment.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrForbidden means the role is not permitted for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrAccessDenied means the role is fine but enrollment or ownership
	// is missing for the specific resource.
	ErrAccessDenied = errors.New("access denied")

	ErrCourseNotFound  = errors.New("course not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrUnknownRole     = errors.New("unknown role")
)

// PrerequisiteError rejects a chapter completion whose prior chapters are
// not all complete. Missing counts the incomplete predecessors and
// NextSequence names the lowest sequence order still open, so the caller
// can tell the learner exactly where to resume.
type PrerequisiteError struct {
	Missing      int
	NextSequence int
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("prerequisite not met: %d earlier chapter(s) incomplete, resume at chapter %d", e.Missing, e.NextSequence)
}
