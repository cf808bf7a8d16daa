package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lms/core"
	"lms/utils"
)

// respondEngineError maps the engine's domain errors onto HTTP responses.
// Anything outside the domain set is an infrastructure failure and becomes
// a 500, so "policy says no" and "storage broke" never blur together.
func respondEngineError(c *fiber.Ctx, err error) error {
	var prereq *core.PrerequisiteError

	switch {
	case errors.Is(err, core.ErrCourseNotFound):
		return utils.NotFound(c, "Course not found")
	case errors.Is(err, core.ErrChapterNotFound):
		return utils.NotFound(c, "Chapter not found")
	case errors.Is(err, core.ErrAccessDenied):
		return utils.Forbidden(c, "Access denied for this course")
	case errors.Is(err, core.ErrForbidden):
		return utils.Forbidden(c, "Insufficient permissions for this operation")
	case errors.Is(err, core.ErrMissingCredential), errors.Is(err, core.ErrInvalidCredential):
		return utils.Unauthorized(c, "Unauthorized")
	case errors.As(err, &prereq):
		return utils.Error(c, fiber.StatusBadRequest,
			"Prerequisite not met: complete previous chapters first",
			fiber.Map{
				"missing_chapters": prereq.Missing,
				"resume_at":        prereq.NextSequence,
			})
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}
