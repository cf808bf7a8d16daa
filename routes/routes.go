package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lms/config"
	"lms/controllers"
	"lms/core"
	"lms/middleware"
	"lms/storage"
)

// SetupRoutes wires the engine, controllers and middleware onto the app.
func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	verifier := core.NewVerifier(cfg.JWTSecret)
	store := storage.NewStore(db)
	engine := core.NewEngine(store, store, store)

	authenticate := middleware.Authenticate(verifier, logger)
	mentorOnly := middleware.RequireRoles(core.RoleMentor)
	studentOnly := middleware.RequireRoles(core.RoleStudent)
	adminOnly := middleware.RequireRoles(core.RoleAdmin)
	mentorOrAdmin := middleware.RequireRoles(core.RoleMentor, core.RoleAdmin)

	// Auth routes
	authController := controllers.NewAuthController(db, verifier)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Courses routes. Specific paths before the dynamic :id ones.
	coursesController := controllers.NewCoursesController(db, engine)
	courses := app.Group("/api/courses", authenticate)
	courses.Get("/my", mentorOnly, coursesController.GetMyCourses)
	courses.Get("/assigned", studentOnly, coursesController.GetAssignedCourses)
	courses.Post("/", mentorOnly, coursesController.CreateCourse)
	courses.Post("/:id/chapters", mentorOrAdmin, coursesController.AddChapter)
	courses.Post("/:id/assign", mentorOrAdmin, coursesController.AssignStudent)
	courses.Get("/:id", coursesController.GetCourse)

	// Progress routes
	progressController := controllers.NewProgressController(db, engine)
	progress := app.Group("/api/progress", authenticate, studentOnly)
	progress.Post("/complete", progressController.CompleteChapter)
	progress.Get("/my", progressController.GetMyProgress)

	// Certificate routes
	certificateController := controllers.NewCertificateController(db, engine, cfg)
	app.Get("/api/certificates/:courseId", authenticate, certificateController.GetCertificate)

	// Admin user management
	usersController := controllers.NewUsersController(db)
	users := app.Group("/api/users", authenticate, adminOnly)
	users.Get("/stats", usersController.GetAdminStats)
	users.Get("/", usersController.GetAllUsers)
	users.Put("/:id/approve-mentor", usersController.ApproveMentor)
	users.Delete("/:id", usersController.DeleteUser)
}
