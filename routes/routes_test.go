package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lms/config"
	"lms/database"
	"lms/models"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:          "testsecret",
		CertificateBaseURL: "https://certs.test",
	}

	app := fiber.New()
	SetupRoutes(app, db, cfg, log.New(io.Discard, "", 0))
	return app, db
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var result map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

func registerUser(t *testing.T, app *fiber.App, name, email, role string) {
	t.Helper()
	resp, _ := doRequest(t, app, "POST", "/api/auth/register", "", map[string]string{
		"full_name": name,
		"email":     email,
		"password":  "password123",
		"role":      role,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func loginUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp, result := doRequest(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	token, _ := result["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// seedAdmin creates an admin account directly; admins cannot self-register.
func seedAdmin(t *testing.T, db *gorm.DB, email string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	admin := models.User{
		FullName:     "Site Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         "admin",
		IsApproved:   true,
	}
	require.NoError(t, db.Create(&admin).Error)
}

func data(result map[string]interface{}) map[string]interface{} {
	d, _ := result["data"].(map[string]interface{})
	return d
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := setupTestApp(t)

	registerUser(t, app, "Sam Student", "sam@test.com", "student")
	token := loginUser(t, app, "sam@test.com")
	assert.NotEmpty(t, token)

	// Duplicate email is rejected.
	resp, _ := doRequest(t, app, "POST", "/api/auth/register", "", map[string]string{
		"full_name": "Sam Again",
		"email":     "sam@test.com",
		"password":  "password123",
		"role":      "student",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Admin self-registration is rejected by validation.
	resp, _ = doRequest(t, app, "POST", "/api/auth/register", "", map[string]string{
		"full_name": "Eve",
		"email":     "eve@test.com",
		"password":  "password123",
		"role":      "admin",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	// Wrong password.
	resp, _ = doRequest(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "sam@test.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRBAC(t *testing.T) {
	app, db := setupTestApp(t)
	seedAdmin(t, db, "admin@test.com")
	registerUser(t, app, "Sam Student", "sam@test.com", "student")
	studentToken := loginUser(t, app, "sam@test.com")
	adminToken := loginUser(t, app, "admin@test.com")

	// Unauthenticated requests never reach role or enrollment checks.
	resp, _ := doRequest(t, app, "GET", "/api/users", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp, _ = doRequest(t, app, "POST", "/api/courses", "", map[string]string{"title": "X"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Student on an admin-only route.
	resp, _ = doRequest(t, app, "GET", "/api/users", studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Student on a mentor-only route, independent of enrollment state.
	resp, _ = doRequest(t, app, "POST", "/api/courses", studentToken, map[string]string{"title": "Nope"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Admin passes.
	resp, _ = doRequest(t, app, "GET", "/api/users", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMentorApprovalFlow(t *testing.T) {
	app, db := setupTestApp(t)
	seedAdmin(t, db, "admin@test.com")
	registerUser(t, app, "Mia Mentor", "mia@test.com", "mentor")
	mentorToken := loginUser(t, app, "mia@test.com")
	adminToken := loginUser(t, app, "admin@test.com")

	// Unapproved mentor cannot create courses yet.
	resp, _ := doRequest(t, app, "POST", "/api/courses", mentorToken, map[string]string{"title": "Go 101"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var mentor models.User
	require.NoError(t, db.Where("email = ?", "mia@test.com").First(&mentor).Error)

	resp, _ = doRequest(t, app, "PUT", fmt.Sprintf("/api/users/%d/approve-mentor", mentor.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, "POST", "/api/courses", mentorToken, map[string]string{"title": "Go 101"})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Approving a non-mentor id is a 404.
	registerUser(t, app, "Sam Student", "sam@test.com", "student")
	var student models.User
	require.NoError(t, db.Where("email = ?", "sam@test.com").First(&student).Error)
	resp, _ = doRequest(t, app, "PUT", fmt.Sprintf("/api/users/%d/approve-mentor", student.ID), adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// createCourseWithChapters drives the mentor-side API and returns the
// course id and the chapter ids in sequence order.
func createCourseWithChapters(t *testing.T, app *fiber.App, mentorToken string, chapterTitles []string) (uint, []uint) {
	t.Helper()

	resp, result := doRequest(t, app, "POST", "/api/courses", mentorToken, map[string]string{
		"title": "Go From Zero",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	course := data(result)["course"].(map[string]interface{})
	courseID := uint(course["id"].(float64))

	chapterIDs := make([]uint, 0, len(chapterTitles))
	for _, title := range chapterTitles {
		resp, result = doRequest(t, app, "POST", fmt.Sprintf("/api/courses/%d/chapters", courseID), mentorToken, map[string]string{
			"title": title,
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		chapter := data(result)["chapter"].(map[string]interface{})
		chapterIDs = append(chapterIDs, uint(chapter["id"].(float64)))
	}
	return courseID, chapterIDs
}

func setupProgressionCourse(t *testing.T, app *fiber.App, db *gorm.DB) (courseID uint, chapters []uint, studentToken string) {
	t.Helper()
	seedAdmin(t, db, "admin@test.com")
	registerUser(t, app, "Mia Mentor", "mia@test.com", "mentor")
	registerUser(t, app, "Sam Student", "sam@test.com", "student")
	adminToken := loginUser(t, app, "admin@test.com")
	mentorToken := loginUser(t, app, "mia@test.com")
	studentToken = loginUser(t, app, "sam@test.com")

	var mentor models.User
	require.NoError(t, db.Where("email = ?", "mia@test.com").First(&mentor).Error)
	resp, _ := doRequest(t, app, "PUT", fmt.Sprintf("/api/users/%d/approve-mentor", mentor.ID), adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	courseID, chapters = createCourseWithChapters(t, app, mentorToken, []string{"Intro", "Types", "Interfaces"})

	resp, _ = doRequest(t, app, "POST", fmt.Sprintf("/api/courses/%d/assign", courseID), mentorToken, map[string]string{
		"student_email": "sam@test.com",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	return courseID, chapters, studentToken
}

func TestEnrollmentGate(t *testing.T) {
	app, db := setupTestApp(t)
	courseID, _, studentToken := setupProgressionCourse(t, app, db)

	// Assigned student reads the course with ordered chapters.
	resp, result := doRequest(t, app, "GET", fmt.Sprintf("/api/courses/%d", courseID), studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	chapters := data(result)["chapters"].([]interface{})
	require.Len(t, chapters, 3)
	for i, raw := range chapters {
		ch := raw.(map[string]interface{})
		assert.Equal(t, float64(i+1), ch["sequence_order"])
	}

	// Unassigned student is denied on an existing course.
	registerUser(t, app, "Olly Outsider", "olly@test.com", "student")
	outsiderToken := loginUser(t, app, "olly@test.com")
	resp, _ = doRequest(t, app, "GET", fmt.Sprintf("/api/courses/%d", courseID), outsiderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// A missing course is not-found, even for the unassigned student.
	resp, _ = doRequest(t, app, "GET", "/api/courses/9999", outsiderToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Mentors read any existing course without an assignment.
	mentorToken := loginUser(t, app, "mia@test.com")
	resp, _ = doRequest(t, app, "GET", fmt.Sprintf("/api/courses/%d", courseID), mentorToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestChapterProgressionAndCertificate(t *testing.T) {
	app, db := setupTestApp(t)
	courseID, chapters, studentToken := setupProgressionCourse(t, app, db)

	complete := func(chapterID uint) (*http.Response, map[string]interface{}) {
		return doRequest(t, app, "POST", "/api/progress/complete", studentToken, map[string]uint{
			"course_id":  courseID,
			"chapter_id": chapterID,
		})
	}

	// B before A is rejected with remediation info.
	resp, result := complete(chapters[1])
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	details := result["details"].(map[string]interface{})
	assert.Equal(t, float64(1), details["missing_chapters"])
	assert.Equal(t, float64(1), details["resume_at"])

	// A, then B.
	resp, _ = complete(chapters[0])
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = complete(chapters[1])
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Repeating B is an idempotent success.
	resp, result = complete(chapters[1])
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Already completed", result["message"])

	// Two of three done: certificate is refused with the counts.
	resp, result = doRequest(t, app, "GET", fmt.Sprintf("/api/certificates/%d", courseID), studentToken, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, result["message"], "2/3")

	// Progress endpoint agrees.
	resp, result = doRequest(t, app, "GET", "/api/progress/my", studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	progress := result["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(2), progress["completed"])
	assert.Equal(t, float64(3), progress["total"])
	assert.Equal(t, false, progress["done"])

	// Finish the course; certificate is issued.
	resp, _ = complete(chapters[2])
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, result = doRequest(t, app, "GET", fmt.Sprintf("/api/certificates/%d", courseID), studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cert := data(result)
	serial := cert["serial"].(string)
	assert.NotEmpty(t, serial)
	assert.Contains(t, cert["url"], serial)

	// Issuance is idempotent: same serial on the second request.
	resp, result = doRequest(t, app, "GET", fmt.Sprintf("/api/certificates/%d", courseID), studentToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, serial, data(result)["serial"])
}

func TestAssignStudentRules(t *testing.T) {
	app, db := setupTestApp(t)
	courseID, _, _ := setupProgressionCourse(t, app, db)
	mentorToken := loginUser(t, app, "mia@test.com")

	// Re-assigning the same student is rejected.
	resp, _ := doRequest(t, app, "POST", fmt.Sprintf("/api/courses/%d/assign", courseID), mentorToken, map[string]string{
		"student_email": "sam@test.com",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Unknown email.
	resp, _ = doRequest(t, app, "POST", fmt.Sprintf("/api/courses/%d/assign", courseID), mentorToken, map[string]string{
		"student_email": "ghost@test.com",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Assigning a non-student account.
	registerUser(t, app, "Max Mentor", "max@test.com", "mentor")
	resp, _ = doRequest(t, app, "POST", fmt.Sprintf("/api/courses/%d/assign", courseID), mentorToken, map[string]string{
		"student_email": "max@test.com",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// A mentor who does not own the course cannot assign to it.
	maxToken := loginUser(t, app, "max@test.com")
	resp, _ = doRequest(t, app, "POST", fmt.Sprintf("/api/courses/%d/assign", courseID), maxToken, map[string]string{
		"student_email": "sam@test.com",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
