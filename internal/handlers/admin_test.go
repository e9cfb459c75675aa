package handlers_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himilo-dev/homeman-api/internal/models"
)

func TestDashboardAdminView(t *testing.T) {
	gdb := newTestDB(t)
	app := newTestApp(t, gdb)

	admin := createUser(t, gdb, "Admin", "admin@example.com", models.RoleAdmin, "hargeisa")
	createUser(t, gdb, "Ali", "ali@example.com", models.RolePro, "hargeisa", verified(), withSkills("Plumber"))
	createUser(t, gdb, "Warsame", "warsame@example.com", models.RolePro, "berbera")
	createUser(t, gdb, "Hodan", "hodan@example.com", models.RolePro, "hargeisa", verified(), suspended())
	createUser(t, gdb, "Operator", "operator@example.com", models.RolePro, "hargeisa", verified(), hidden())

	status, body := doJSON(t, app, http.MethodGet, "/api/admin/dashboard", tokenFor(t, admin), nil)
	ok(t, status, body)

	stats, _ := body["stats"].(map[string]interface{})
	require.NotNil(t, stats)
	assert.EqualValues(t, 3, stats["totalPros"], "hidden operator must not be counted")
	assert.EqualValues(t, 1, stats["pendingApprovals"])
	assert.EqualValues(t, 1, stats["livePros"])
	assert.EqualValues(t, 1, stats["suspendedCount"])

	pros, _ := body["pros"].([]interface{})
	assert.Len(t, pros, 3)
}

func TestDashboardClientView(t *testing.T) {
	gdb := newTestDB(t)
	app := newTestApp(t, gdb)

	asha := createUser(t, gdb, "Asha", "asha@example.com", models.RoleClient, "Hargeisa")
	createUser(t, gdb, "Ali", "ali@example.com", models.RolePro, "hargeisa", verified(), withPhone("063-1234567"), withSkills("Plumber"))
	createUser(t, gdb, "Warsame", "warsame@example.com", models.RolePro, "berbera", verified())
	createUser(t, gdb, "Pending Pro", "pending@example.com", models.RolePro, "hargeisa")
	createUser(t, gdb, "Hodan", "hodan@example.com", models.RolePro, "hargeisa", verified(), suspended())

	status, body := doJSON(t, app, http.MethodGet, "/api/admin/dashboard", tokenFor(t, asha), nil)
	ok(t, status, body)

	pros, _ := body["pros"].([]interface{})
	require.Len(t, pros, 1, "only verified, unsuspended, same-city pros")

	pro, _ := pros[0].(map[string]interface{})
	assert.Equal(t, "Ali", pro["name"])
	assert.Equal(t, []interface{}{"Plumber"}, pro["skills"])
	_, hasPhone := pro["phone"]
	assert.False(t, hasPhone, "phone is only revealed through an accepted booking")
}

func TestDashboardRequesterGone(t *testing.T) {
	gdb := newTestDB(t)
	app := newTestApp(t, gdb)

	ghost := createUser(t, gdb, "Ghost", "ghost@example.com", models.RoleClient, "hargeisa")
	token := tokenFor(t, ghost)
	require.NoError(t, gdb.Delete(ghost).Error)

	status, body := doJSON(t, app, http.MethodGet, "/api/admin/dashboard", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["message"])
}

func TestVerifyProIsIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	app := newTestApp(t, gdb)

	admin := createUser(t, gdb, "Admin", "admin@example.com", models.RoleAdmin, "hargeisa")
	pro := createUser(t, gdb, "Ali", "ali@example.com", models.RolePro, "hargeisa")

	for i := 0; i < 2; i++ {
		status, body := doJSON(t, app, http.MethodPatch, "/api/admin/verify/"+pro.ID.String(), tokenFor(t, admin), nil)
		ok(t, status, body)

		var got models.User
		require.NoError(t, gdb.First(&got, "id = ?", pro.ID).Error)
		assert.True(t, got.IsVerified)
	}
}

func TestVerifyProUnknownID(t *testing.T) {
	gdb := newTestDB(t)
	app := newTestApp(t, gdb)

	admin := createUser(t, gdb, "Admin", "admin@example.com", models.RoleAdmin, "hargeisa")
	status, body := doJSON(t, app, http.MethodPatch, "/api/admin/verify/"+uuid.NewString(), tokenFor(t, admin), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["message"])
}

func TestToggleSuspensionIsAnInvolution(t *testing.T) {
	gdb := newTestDB(t)
	app := newTestApp(t, gdb)

	admin := createUser(t, gdb, "Admin", "admin@example.com", models.RoleAdmin, "hargeisa")
	pro := createUser(t, gdb, "Ali", "ali@example.com", models.RolePro, "hargeisa", verified())

	status, body := doJSON(t, app, http.MethodPatch, "/api/admin/suspend/"+pro.ID.String(), tokenFor(t, admin), nil)
	ok(t, status, body)
	assert.Equal(t, "Professional Suspended", body["message"])

	status, body = doJSON(t, app, http.MethodPatch, "/api/admin/suspend/"+pro.ID.String(), tokenFor(t, admin), nil)
	ok(t, status, body)
	assert.Equal(t, "Professional Reinstated", body["message"])

	var got models.User
	require.NoError(t, gdb.First(&got, "id = ?", pro.ID).Error)
	assert.False(t, got.IsSuspended, "two toggles return to the original state")
}

func TestDeleteUser(t *testing.T) {
	gdb := newTestDB(t)
	app := newTestApp(t, gdb)

	admin := createUser(t, gdb, "Admin", "admin@example.com", models.RoleAdmin, "hargeisa")
	pro := createUser(t, gdb, "Ali", "ali@example.com", models.RolePro, "hargeisa")

	status, body := doJSON(t, app, http.MethodDelete, "/api/admin/user/"+pro.ID.String(), tokenFor(t, admin), nil)
	ok(t, status, body)
	assert.Equal(t, "User deleted successfully", body["message"])

	var n int64
	gdb.Model(&models.User{}).Where("id = ?", pro.ID).Count(&n)
	assert.EqualValues(t, 0, n)

	// second delete: already gone
	status, body = doJSON(t, app, http.MethodDelete, "/api/admin/user/"+pro.ID.String(), tokenFor(t, admin), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["message"])
}

// Deleting a user must succeed even when bookings still reference them;
// the bookings stay behind with dangling references. Foreign-key
// enforcement is switched on so a REFERENCES clause in the schema would
// fail this test the way it would fail on Postgres.
func TestDeleteUserWithBookingsLeavesOrphans(t *testing.T) {
	gdb := openTestDB(t, ":memory:?_pragma=foreign_keys(1)")
	app := newTestApp(t, gdb)

	admin := createUser(t, gdb, "Admin", "admin@example.com", models.RoleAdmin, "hargeisa")
	asha := createUser(t, gdb, "Asha", "asha@example.com", models.RoleClient, "hargeisa")
	ali := createUser(t, gdb, "Ali", "ali@example.com", models.RolePro, "hargeisa", verified())

	booking := models.Booking{ClientID: asha.ID, ProfessionalID: ali.ID, Status: models.BookingAccepted}
	require.NoError(t, gdb.Create(&booking).Error)

	status, body := doJSON(t, app, http.MethodDelete, "/api/admin/user/"+ali.ID.String(), tokenFor(t, admin), nil)
	ok(t, status, body)

	var n int64
	gdb.Model(&models.User{}).Where("id = ?", ali.ID).Count(&n)
	assert.EqualValues(t, 0, n)

	var orphan models.Booking
	require.NoError(t, gdb.First(&orphan, "id = ?", booking.ID).Error)
	assert.Equal(t, ali.ID, orphan.ProfessionalID, "booking keeps the dangling reference")
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	gdb := newTestDB(t)
	app := newTestApp(t, gdb)

	client := createUser(t, gdb, "Asha", "asha@example.com", models.RoleClient, "hargeisa")
	pro := createUser(t, gdb, "Ali", "ali@example.com", models.RolePro, "hargeisa")

	status, _ := doJSON(t, app, http.MethodPatch, "/api/admin/verify/"+pro.ID.String(), tokenFor(t, client), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/admin/analytics", tokenFor(t, client), nil)
	assert.Equal(t, http.StatusForbidden, status)
}
