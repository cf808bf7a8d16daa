package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"lms/models"
)

// memProviders backs the engine with plain maps so the decision logic can
// be tested without a database.
type memProviders struct {
	courses   map[uint]*models.Course
	chapters  map[uint][]models.Chapter
	enrolled  map[[2]uint]bool
	completed map[[3]uint]bool
}

func newMemProviders() *memProviders {
	return &memProviders{
		courses:   make(map[uint]*models.Course),
		chapters:  make(map[uint][]models.Chapter),
		enrolled:  make(map[[2]uint]bool),
		completed: make(map[[3]uint]bool),
	}
}

func (m *memProviders) GetCourse(courseID uint) (*models.Course, error) {
	return m.courses[courseID], nil
}

func (m *memProviders) GetChapters(courseID uint) ([]models.Chapter, error) {
	return m.chapters[courseID], nil
}

func (m *memProviders) IsEnrolled(studentID, courseID uint) (bool, error) {
	return m.enrolled[[2]uint{studentID, courseID}], nil
}

func (m *memProviders) HasCompleted(userID, courseID, chapterID uint) (bool, error) {
	return m.completed[[3]uint{userID, courseID, chapterID}], nil
}

func (m *memProviders) RecordCompletion(userID, courseID, chapterID uint) (RecordResult, error) {
	key := [3]uint{userID, courseID, chapterID}
	if m.completed[key] {
		return RecordExists, nil
	}
	m.completed[key] = true
	return RecordCreated, nil
}

func (m *memProviders) CountCompleted(userID, courseID uint) (int64, error) {
	var count int64
	for key, done := range m.completed {
		if done && key[0] == userID && key[1] == courseID {
			count++
		}
	}
	return count, nil
}

func (m *memProviders) CountChapters(courseID uint) (int64, error) {
	return int64(len(m.chapters[courseID])), nil
}

func (m *memProviders) addCourse(courseID, mentorID uint) {
	m.courses[courseID] = &models.Course{
		Model:    gorm.Model{ID: courseID},
		MentorID: mentorID,
	}
}

// addChapter uses deliberately non-contiguous chapter ids so any test
// relying on id arithmetic instead of sequence order would fail.
func (m *memProviders) addChapter(courseID, chapterID uint, order int) {
	m.chapters[courseID] = append(m.chapters[courseID], models.Chapter{
		Model:         gorm.Model{ID: chapterID},
		CourseID:      courseID,
		SequenceOrder: order,
	})
}

func student(id uint) Identity { return Identity{SubjectID: id, Role: RoleStudent} }
func mentor(id uint) Identity  { return Identity{SubjectID: id, Role: RoleMentor} }
func admin(id uint) Identity   { return Identity{SubjectID: id, Role: RoleAdmin} }

func TestAuthorizeEnrollment(t *testing.T) {
	providers := newMemProviders()
	providers.addCourse(1, 50)
	providers.enrolled[[2]uint{10, 1}] = true
	engine := NewEngine(providers, providers, providers)

	tests := []struct {
		name     string
		id       Identity
		courseID uint
		want     error
	}{
		{"enrolled student", student(10), 1, nil},
		{"unenrolled student", student(11), 1, ErrAccessDenied},
		{"mentor bypasses enrollment", mentor(99), 1, nil},
		{"admin bypasses enrollment", admin(1), 1, nil},
		{"missing course beats enrollment check", student(10), 42, ErrCourseNotFound},
		{"missing course for mentor", mentor(50), 42, ErrCourseNotFound},
		{"unknown role", Identity{SubjectID: 10, Role: "ghost"}, 1, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.AuthorizeEnrollment(tt.id, tt.courseID)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestAuthorizeCourseMutation(t *testing.T) {
	providers := newMemProviders()
	providers.addCourse(1, 50)
	engine := NewEngine(providers, providers, providers)

	tests := []struct {
		name     string
		id       Identity
		courseID uint
		want     error
	}{
		{"owning mentor", mentor(50), 1, nil},
		{"other mentor", mentor(51), 1, ErrAccessDenied},
		{"admin mutates any course", admin(1), 1, nil},
		{"student never mutates", student(10), 1, ErrForbidden},
		{"missing course", mentor(50), 42, ErrCourseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.AuthorizeCourseMutation(tt.id, tt.courseID)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
