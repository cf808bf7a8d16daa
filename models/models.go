package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FullName     string
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:student"` // student, mentor, admin
	IsApproved   bool   `gorm:"default:false"`   // mentors need admin approval
}

type Course struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Description string
	MentorID    uint      `gorm:"index;not null"`
	Chapters    []Chapter `gorm:"constraint:OnDelete:CASCADE"`
}

type Chapter struct {
	gorm.Model
	CourseID      uint   `gorm:"uniqueIndex:idx_chapter_course_order;not null"`
	Title         string `gorm:"not null"`
	Content       string
	SequenceOrder int `gorm:"uniqueIndex:idx_chapter_course_order;not null"`
}

// Assignment grants a student read access to a course.
type Assignment struct {
	gorm.Model
	CourseID  uint `gorm:"uniqueIndex:idx_assignment_course_student;not null"`
	StudentID uint `gorm:"uniqueIndex:idx_assignment_course_student;not null"`
}

// Progress marks one chapter completed by one user. The unique index is the
// idempotence guarantee: concurrent duplicate submissions collapse into a
// single row and the second insert surfaces as a duplicate-key error.
type Progress struct {
	gorm.Model
	UserID    uint `gorm:"uniqueIndex:idx_progress_user_chapter;not null"`
	CourseID  uint `gorm:"index;not null"`
	ChapterID uint `gorm:"uniqueIndex:idx_progress_user_chapter;not null"`
}

type Certificate struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex:idx_certificate_user_course;not null"`
	CourseID uint   `gorm:"uniqueIndex:idx_certificate_user_course;not null"`
	Serial   string `gorm:"unique;not null"`
	IssuedAt time.Time
}
