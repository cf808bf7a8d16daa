// Package core is the access-control and progression engine: who may see a
// course, which chapter completions are admissible, and when a learner has
// earned a certificate. Storage, transport and rendering live elsewhere;
// the engine only talks to the provider interfaces below.
package core

import (
	"fmt"

	"lms/models"
)

// Catalog resolves courses and their ordered chapter sequences.
// GetCourse returns (nil, nil) when the course does not exist.
// GetChapters must return chapters sorted by ascending sequence order.
type Catalog interface {
	GetCourse(courseID uint) (*models.Course, error)
	GetChapters(courseID uint) ([]models.Chapter, error)
}

// Membership answers whether a student is assigned to a course.
type Membership interface {
	IsEnrolled(studentID, courseID uint) (bool, error)
}

// RecordResult reports what a completion insert did.
type RecordResult int

const (
	RecordCreated RecordResult = iota
	RecordExists
)

// ProgressLedger records and counts completion facts. RecordCompletion must
// be backed by a unique constraint and report a duplicate as RecordExists,
// not as an error; that is the whole concurrency story the engine relies on.
type ProgressLedger interface {
	HasCompleted(userID, courseID, chapterID uint) (bool, error)
	RecordCompletion(userID, courseID, chapterID uint) (RecordResult, error)
	CountCompleted(userID, courseID uint) (int64, error)
	CountChapters(courseID uint) (int64, error)
}

type Engine struct {
	catalog Catalog
	members Membership
	ledger  ProgressLedger
}

func NewEngine(catalog Catalog, members Membership, ledger ProgressLedger) *Engine {
	return &Engine{catalog: catalog, members: members, ledger: ledger}
}

// AuthorizeEnrollment gates read access to a course's chapter content.
// Existence is checked before membership, so a missing course reads as
// ErrCourseNotFound while an existing-but-unassigned one reads as
// ErrAccessDenied. Mentors and admins bypass the membership check;
// ownership for mutations is a separate rule (AuthorizeCourseMutation).
func (e *Engine) AuthorizeEnrollment(id Identity, courseID uint) error {
	course, err := e.catalog.GetCourse(courseID)
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return ErrCourseNotFound
	}

	switch id.Role {
	case RoleMentor, RoleAdmin:
		return nil
	case RoleStudent:
		enrolled, err := e.members.IsEnrolled(id.SubjectID, courseID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if !enrolled {
			return ErrAccessDenied
		}
		return nil
	default:
		return ErrForbidden
	}
}

// AuthorizeCourseMutation gates writes to a course: a mentor may mutate
// only courses they own, an admin any course, a student none.
func (e *Engine) AuthorizeCourseMutation(id Identity, courseID uint) error {
	course, err := e.catalog.GetCourse(courseID)
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return ErrCourseNotFound
	}

	switch id.Role {
	case RoleAdmin:
		return nil
	case RoleMentor:
		if course.MentorID != id.SubjectID {
			return ErrAccessDenied
		}
		return nil
	default:
		return ErrForbidden
	}
}
