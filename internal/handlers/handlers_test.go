package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/himilo-dev/homeman-api/internal/handlers"
	"github.com/himilo-dev/homeman-api/internal/middleware"
	"github.com/himilo-dev/homeman-api/internal/models"
	"github.com/himilo-dev/homeman-api/internal/utils"
)

const testSecret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, ":memory:")
}

// openTestDB mirrors db.Connect's gorm.Config so tests exercise the same
// migration behavior as production.
func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Booking{}))
	return gdb
}

// newTestApp wires the same route table as cmd/api, minus Redis and the
// websocket endpoint.
func newTestApp(t *testing.T, gdb *gorm.DB) *fiber.App {
	t.Helper()

	app := fiber.New()

	authH := &handlers.AuthHandler{DB: gdb, JWTSecret: testSecret, Expires: 60}
	adminH := handlers.NewAdminHandler(gdb)
	bookingH := handlers.NewBookingHandler(gdb, nil)
	analyticsH := handlers.NewAnalyticsHandler(gdb)

	api := app.Group("/api")
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)

	protected := api.Group("/", middleware.RequireAuth(testSecret, nil))
	protected.Post("/auth/logout", authH.Logout)
	protected.Get("/admin/dashboard", adminH.Dashboard)
	protected.Patch("/admin/verify/:id", middleware.RequireRoles("admin"), adminH.VerifyPro)
	protected.Patch("/admin/suspend/:id", middleware.RequireRoles("admin"), adminH.ToggleSuspension)
	protected.Delete("/admin/user/:id", middleware.RequireRoles("admin"), adminH.DeleteUser)
	protected.Get("/admin/analytics", middleware.RequireRoles("admin"), analyticsH.Get)
	protected.Post("/bookings/create", middleware.RequireRoles("client"), bookingH.Create)
	protected.Get("/bookings/my-bookings", bookingH.MyBookings)
	protected.Patch("/bookings/update-status", middleware.RequireRoles("pro"), bookingH.UpdateStatus)
	protected.Post("/bookings/rate", middleware.RequireRoles("client"), bookingH.Rate)

	return app
}

type userOpt func(*models.User)

func verified() userOpt  { return func(u *models.User) { u.IsVerified = true } }
func suspended() userOpt { return func(u *models.User) { u.IsSuspended = true } }
func hidden() userOpt    { return func(u *models.User) { u.IsHidden = true } }
func withPhone(p string) userOpt {
	return func(u *models.User) { u.Phone = p }
}
func withSkills(skills ...string) userOpt {
	return func(u *models.User) { u.Skills = datatypes.NewJSONSlice(skills) }
}

func createUser(t *testing.T, gdb *gorm.DB, name, email string, role models.Role, location string, opts ...userOpt) *models.User {
	t.Helper()

	hashed, err := utils.HashPassword("password123")
	require.NoError(t, err)

	u := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     role,
		Location: models.NormalizeLocation(location),
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()

	token, err := utils.SignJWT(testSecret, u.ID.String(), string(u.Role), 60)
	require.NoError(t, err)
	return token
}

// doJSON runs one request and decodes the JSON response envelope.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func created(t *testing.T, status int, body map[string]interface{}) {
	t.Helper()
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	require.Equal(t, true, body["success"])
}

func ok(t *testing.T, status int, body map[string]interface{}) {
	t.Helper()
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	require.Equal(t, true, body["success"])
}
