// Package storage implements the engine's provider interfaces on gorm.
// All queries are single statements; the engine never asks for cross-call
// atomicity beyond the unique constraints declared on the models.
package storage

import (
	"errors"

	"gorm.io/gorm"

	"lms/core"
	"lms/models"
)

type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) GetCourse(courseID uint) (*models.Course, error) {
	var course models.Course
	if err := s.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (s *Store) GetChapters(courseID uint) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := s.DB.Where("course_id = ?", courseID).
		Order("sequence_order ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, err
	}
	return chapters, nil
}

func (s *Store) IsEnrolled(studentID, courseID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Assignment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) HasCompleted(userID, courseID, chapterID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ? AND chapter_id = ?", userID, courseID, chapterID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordCompletion inserts the completion fact. The composite unique index
// on (user_id, chapter_id) makes concurrent duplicates collapse: the loser
// gets a duplicate-key error, reported here as RecordExists.
func (s *Store) RecordCompletion(userID, courseID, chapterID uint) (core.RecordResult, error) {
	record := models.Progress{
		UserID:    userID,
		CourseID:  courseID,
		ChapterID: chapterID,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return core.RecordExists, nil
		}
		return 0, err
	}
	return core.RecordCreated, nil
}

func (s *Store) CountCompleted(userID, courseID uint) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count, err
}

func (s *Store) CountChapters(courseID uint) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Chapter{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}
