package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/core"
	"lms/middleware"
	"lms/models"
	"lms/utils"
)

type CoursesController struct {
	DB     *gorm.DB
	Engine *core.Engine
}

func NewCoursesController(db *gorm.DB, engine *core.Engine) *CoursesController {
	return &CoursesController{DB: db, Engine: engine}
}

type CreateCourseInput struct {
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description"`
}

type AddChapterInput struct {
	Title         string `json:"title" validate:"required,min=1"`
	Content       string `json:"content"`
	SequenceOrder int    `json:"sequence_order" validate:"omitempty,gt=0"`
}

type AssignStudentInput struct {
	StudentEmail string `json:"student_email" validate:"required,email"`
}

func courseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid course ID")
	}
	return uint(id), nil
}

// CreateCourse creates a course owned by the calling mentor. Mentor-only
// route; unapproved mentors are rejected.
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input CreateCourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if id.Role == core.RoleMentor {
		var mentor models.User
		if err := cc.DB.First(&mentor, id.SubjectID).Error; err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}
		if !mentor.IsApproved {
			return utils.Forbidden(c, "Mentor account is not approved yet")
		}
	}

	course := models.Course{
		Title:       input.Title,
		Description: input.Description,
		MentorID:    id.SubjectID,
	}

	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return utils.Created(c, fiber.Map{
		"message": "Course created",
		"course": fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"mentor_id":   course.MentorID,
		},
	})
}

// AddChapter appends a chapter to an owned course. When no sequence order
// is given the chapter goes after the current last one.
func (cc *CoursesController) AddChapter(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := courseIDParam(c)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input AddChapterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if err := cc.Engine.AuthorizeCourseMutation(id, courseID); err != nil {
		return respondEngineError(c, err)
	}

	order := input.SequenceOrder
	if order == 0 {
		var maxOrder int
		cc.DB.Model(&models.Chapter{}).
			Where("course_id = ?", courseID).
			Select("COALESCE(MAX(sequence_order), 0)").
			Scan(&maxOrder)
		order = maxOrder + 1
	}

	chapter := models.Chapter{
		CourseID:      courseID,
		Title:         input.Title,
		Content:       input.Content,
		SequenceOrder: order,
	}

	if err := cc.DB.Create(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.BadRequest(c, "A chapter with this sequence order already exists")
		}
		return utils.InternalServerError(c, "Could not create chapter")
	}

	return utils.Created(c, fiber.Map{
		"message": "Chapter added",
		"chapter": fiber.Map{
			"id":             chapter.ID,
			"course_id":      chapter.CourseID,
			"title":          chapter.Title,
			"sequence_order": chapter.SequenceOrder,
		},
	})
}

// GetMyCourses returns the courses owned by the calling mentor.
func (cc *CoursesController) GetMyCourses(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var courses []models.Course
	if err := cc.DB.Where("mentor_id = ?", id.SubjectID).Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		result = append(result, fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

// GetAssignedCourses returns the courses the calling student is assigned to.
func (cc *CoursesController) GetAssignedCourses(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var courses []models.Course
	err := cc.DB.Joins("JOIN assignments ON assignments.course_id = courses.id").
		Where("assignments.student_id = ? AND assignments.deleted_at IS NULL", id.SubjectID).
		Find(&courses).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		result = append(result, fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"mentor_id":   course.MentorID,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

// AssignStudent assigns a student to a course by email. Only the owning
// mentor or an admin may assign.
func (cc *CoursesController) AssignStudent(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := courseIDParam(c)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input AssignStudentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if err := cc.Engine.AuthorizeCourseMutation(id, courseID); err != nil {
		return respondEngineError(c, err)
	}

	var student models.User
	if err := cc.DB.Where("email = ?", input.StudentEmail).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Student email not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if student.Role != core.RoleStudent.String() {
		return utils.BadRequest(c, "User is not a student")
	}

	assignment := models.Assignment{
		CourseID:  courseID,
		StudentID: student.ID,
	}
	if err := cc.DB.Create(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.BadRequest(c, "Student already assigned")
		}
		return utils.InternalServerError(c, "Could not create assignment")
	}

	return utils.Message(c, fiber.StatusOK, "Student assigned successfully")
}

// GetCourse returns one course with its ordered chapters. Students must be
// assigned; mentors and admins read any existing course.
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := courseIDParam(c)
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	if err := cc.Engine.AuthorizeEnrollment(id, courseID); err != nil {
		return respondEngineError(c, err)
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var chapters []models.Chapter
	if err := cc.DB.Where("course_id = ?", courseID).
		Order("sequence_order ASC").
		Find(&chapters).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	chapterMaps := make([]fiber.Map, 0, len(chapters))
	for _, ch := range chapters {
		chapterMaps = append(chapterMaps, fiber.Map{
			"id":             ch.ID,
			"title":          ch.Title,
			"content":        ch.Content,
			"sequence_order": ch.SequenceOrder,
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course": fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"mentor_id":   course.MentorID,
		},
		"chapters": chapterMaps,
	})
}
