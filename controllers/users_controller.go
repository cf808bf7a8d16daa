package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/core"
	"lms/models"
	"lms/utils"
)

// UsersController holds the admin-only user management endpoints. Role
// gating happens in the route middleware; handlers only implement the
// operation itself.
type UsersController struct {
	DB *gorm.DB
}

func NewUsersController(db *gorm.DB) *UsersController {
	return &UsersController{DB: db}
}

func (uc *UsersController) GetAllUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := uc.DB.Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		result = append(result, fiber.Map{
			"id":          user.ID,
			"full_name":   user.FullName,
			"email":       user.Email,
			"role":        user.Role,
			"is_approved": user.IsApproved,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

// ApproveMentor flips the approval flag on a mentor account. Non-mentor
// rows are not touched.
func (uc *UsersController) ApproveMentor(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil || userID <= 0 {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var mentor models.User
	err = uc.DB.Where("id = ? AND role = ?", userID, core.RoleMentor.String()).First(&mentor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Mentor not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	mentor.IsApproved = true
	if err := uc.DB.Save(&mentor).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return utils.Message(c, fiber.StatusOK, "Mentor account approved")
}

func (uc *UsersController) DeleteUser(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil || userID <= 0 {
		return utils.BadRequest(c, "Invalid user ID")
	}

	if err := uc.DB.Delete(&models.User{}, userID).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete user")
	}

	return utils.Message(c, fiber.StatusOK, "User deleted")
}

// GetAdminStats builds the dashboard overview: per course, the mentor, the
// chapter total and every assigned student's completion snapshot.
func (uc *UsersController) GetAdminStats(c *fiber.Ctx) error {
	var courses []models.Course
	if err := uc.DB.Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	stats := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		var mentor models.User
		uc.DB.First(&mentor, course.MentorID)

		var totalChapters int64
		uc.DB.Model(&models.Chapter{}).Where("course_id = ?", course.ID).Count(&totalChapters)

		var assignments []models.Assignment
		uc.DB.Where("course_id = ?", course.ID).Find(&assignments)

		students := make([]fiber.Map, 0, len(assignments))
		completedStudents := 0
		for _, a := range assignments {
			var student models.User
			uc.DB.First(&student, a.StudentID)

			var completed int64
			uc.DB.Model(&models.Progress{}).
				Where("user_id = ? AND course_id = ?", a.StudentID, course.ID).
				Count(&completed)

			percentage := 0
			if totalChapters > 0 {
				percentage = int(completed * 100 / totalChapters)
			}
			done := totalChapters > 0 && completed >= totalChapters
			if done {
				completedStudents++
			}

			students = append(students, fiber.Map{
				"student_id":    a.StudentID,
				"student_email": student.Email,
				"student_name":  student.FullName,
				"completed":     completed,
				"total":         totalChapters,
				"percentage":    percentage,
				"is_completed":  done,
			})
		}

		stats = append(stats, fiber.Map{
			"course_id":              course.ID,
			"title":                  course.Title,
			"mentor_id":              course.MentorID,
			"mentor_email":           mentor.Email,
			"mentor_name":            mentor.FullName,
			"total_chapters":         totalChapters,
			"total_students":         len(students),
			"students_completed":     completedStudents,
			"students_not_completed": len(students) - completedStudents,
			"student_details":        students,
		})
	}

	return utils.Success(c, fiber.StatusOK, stats)
}
