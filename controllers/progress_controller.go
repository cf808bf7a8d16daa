package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/core"
	"lms/middleware"
	"lms/models"
	"lms/utils"
)

type ProgressController struct {
	DB     *gorm.DB
	Engine *core.Engine
}

func NewProgressController(db *gorm.DB, engine *core.Engine) *ProgressController {
	return &ProgressController{DB: db, Engine: engine}
}

type CompleteChapterInput struct {
	CourseID  uint `json:"course_id" validate:"required,gt=0"`
	ChapterID uint `json:"chapter_id" validate:"required,gt=0"`
}

// CompleteChapter godoc
// @Summary Mark a chapter as completed
// @Description Records a chapter completion if all earlier chapters are done. Repeat completion is a no-op success.
// @Tags progress
// @Accept json
// @Produce json
// @Param input body CompleteChapterInput true "Completion data"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/complete [post]
func (pc *ProgressController) CompleteChapter(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input CompleteChapterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	result, err := pc.Engine.CompleteChapter(id, input.CourseID, input.ChapterID)
	if err != nil {
		return respondEngineError(c, err)
	}

	if result == core.ResultAlreadyCompleted {
		return utils.Message(c, fiber.StatusOK, "Already completed")
	}
	return utils.Message(c, fiber.StatusOK, "Chapter completed successfully")
}

// GetMyProgress returns a completion snapshot for every course the calling
// student is assigned to. Snapshots are recomputed per request, never
// cached, since progress can change between calls.
func (pc *ProgressController) GetMyProgress(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var courses []models.Course
	err := pc.DB.Joins("JOIN assignments ON assignments.course_id = courses.id").
		Where("assignments.student_id = ? AND assignments.deleted_at IS NULL", id.SubjectID).
		Find(&courses).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		snapshot, err := pc.Engine.EvaluateEligibility(id, course.ID)
		if err != nil {
			return respondEngineError(c, err)
		}

		percentage := 0
		if snapshot.Total > 0 {
			percentage = int(snapshot.Completed * 100 / snapshot.Total)
		}

		result = append(result, fiber.Map{
			"course_id":  course.ID,
			"title":      course.Title,
			"completed":  snapshot.Completed,
			"total":      snapshot.Total,
			"percentage": percentage,
			"done":       snapshot.Eligible,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}
