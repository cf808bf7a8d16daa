package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lms/config"
	"lms/core"
	"lms/middleware"
	"lms/models"
	"lms/utils"
)

type CertificateController struct {
	DB     *gorm.DB
	Engine *core.Engine
	Cfg    *config.Config
}

func NewCertificateController(db *gorm.DB, engine *core.Engine, cfg *config.Config) *CertificateController {
	return &CertificateController{DB: db, Engine: engine, Cfg: cfg}
}

// GetCertificate checks certificate eligibility for the calling user and,
// when every chapter is completed, issues (or returns the existing)
// certificate. Issuance is idempotent per user and course; the rendered
// document lives behind the returned URL, outside this service.
func (cc *CertificateController) GetCertificate(c *fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("courseId"))
	if err != nil || courseID <= 0 {
		return utils.BadRequest(c, "Invalid course ID")
	}

	snapshot, err := cc.Engine.EvaluateEligibility(id, uint(courseID))
	if err != nil {
		return respondEngineError(c, err)
	}

	if !snapshot.Eligible {
		return utils.Forbidden(c,
			fmt.Sprintf("Course not completed. %d/%d chapters done.", snapshot.Completed, snapshot.Total))
	}

	cert, err := cc.issueCertificate(id.SubjectID, uint(courseID))
	if err != nil {
		return utils.InternalServerError(c, "Could not issue certificate")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":   "Certificate generated",
		"serial":    cert.Serial,
		"issued_at": cert.IssuedAt,
		"url":       fmt.Sprintf("%s/certificates/%s.pdf", cc.Cfg.CertificateBaseURL, cert.Serial),
	})
}

// issueCertificate returns the existing certificate for the pair or creates
// one. A concurrent duplicate insert loses against the unique index and
// falls back to reading the winner's row.
func (cc *CertificateController) issueCertificate(userID, courseID uint) (*models.Certificate, error) {
	var cert models.Certificate
	err := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
	if err == nil {
		return &cert, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cert = models.Certificate{
		UserID:   userID,
		CourseID: courseID,
		Serial:   uuid.NewString(),
		IssuedAt: time.Now().UTC(),
	}
	if err := cc.DB.Create(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error
			if err != nil {
				return nil, err
			}
			return &cert, nil
		}
		return nil, err
	}
	return &cert, nil
}
