package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/himilo-dev/homeman-api/internal/models"
)

type AdminHandler struct {
	DB *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{DB: db}
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

// Dashboard is role-dispatched: admins get the full pro roster with
// moderation stats, clients get the verified pros working in their city.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	uid, _ := c.Locals("userId").(string)
	role, _ := c.Locals("role").(string)

	var requester models.User
	if err := h.DB.First(&requester, "id = ?", uid).Error; err != nil {
		return notFound(c, "User not found")
	}

	pros, err := h.listPros()
	if err != nil {
		return serverError(c, "dashboard: pro listing failed", err)
	}

	if role == string(models.RoleAdmin) {
		return h.adminDashboard(c, pros)
	}
	return h.clientDashboard(c, &requester, pros)
}

// listPros returns every pro account except hidden/system ones, newest first.
func (h *AdminHandler) listPros() ([]models.User, error) {
	var pros []models.User
	err := h.DB.
		Where("role = ? AND is_hidden = ?", models.RolePro, false).
		Order("created_at DESC").
		Find(&pros).Error
	return pros, err
}

func (h *AdminHandler) adminDashboard(c *fiber.Ctx, pros []models.User) error {
	var pending, live, suspended int
	for _, p := range pros {
		switch {
		case p.IsSuspended:
			suspended++
		case p.IsVerified:
			live++
		}
		if !p.IsVerified {
			pending++
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"totalPros":        len(pros),
			"pendingApprovals": pending,
			"livePros":         live,
			"suspendedCount":   suspended,
		},
		"pros": pros,
	})
}

// proPublic is the client-facing slice of a pro record. Phone is deliberately
// absent: it is only revealed through a booking once the pro has accepted.
type proPublic struct {
	ID          uuid.UUID                   `json:"id"`
	Name        string                      `json:"name"`
	Email       string                      `json:"email"`
	Location    string                      `json:"location"`
	Skills      datatypes.JSONSlice[string] `json:"skills"`
	Rating      float64                     `json:"rating"`
	ReviewCount int                         `json:"review_count"`
}

func (h *AdminHandler) clientDashboard(c *fiber.Ctx, requester *models.User, pros []models.User) error {
	loc := models.NormalizeLocation(requester.Location)

	matched := make([]proPublic, 0)
	for _, p := range pros {
		if !p.IsVerified || p.IsSuspended {
			continue
		}
		if models.NormalizeLocation(p.Location) != loc {
			continue
		}
		matched = append(matched, proPublic{
			ID:          p.ID,
			Name:        p.Name,
			Email:       p.Email,
			Location:    p.Location,
			Skills:      p.Skills,
			Rating:      p.Rating,
			ReviewCount: p.ReviewCount,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"pros":    matched,
	})
}

// VerifyPro is idempotent; verifying a verified pro is a no-op success.
func (h *AdminHandler) VerifyPro(c *fiber.Ctx) error {
	user, err := h.findUser(c)
	if err != nil {
		return notFound(c, "User not found")
	}

	user.IsVerified = true
	if err := h.DB.Save(user).Error; err != nil {
		return serverError(c, "verify: save failed", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Professional approved!",
		"pro": fiber.Map{
			"id":          user.ID,
			"name":        user.Name,
			"email":       user.Email,
			"is_verified": user.IsVerified,
		},
	})
}

func (h *AdminHandler) ToggleSuspension(c *fiber.Ctx) error {
	user, err := h.findUser(c)
	if err != nil {
		return notFound(c, "User not found")
	}

	user.IsSuspended = !user.IsSuspended
	if err := h.DB.Save(user).Error; err != nil {
		return serverError(c, "suspend: save failed", err)
	}

	msg := "Professional Reinstated"
	if user.IsSuspended {
		msg = "Professional Suspended"
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
		"pro": fiber.Map{
			"id":           user.ID,
			"name":         user.Name,
			"email":        user.Email,
			"is_suspended": user.IsSuspended,
		},
	})
}

// DeleteUser hard-deletes. Bookings referencing the user are left behind;
// the listing endpoints tolerate the dangling reference.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	user, err := h.findUser(c)
	if err != nil {
		return notFound(c, "User not found")
	}

	if err := h.DB.Delete(user).Error; err != nil {
		return serverError(c, "delete: failed", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}

func (h *AdminHandler) findUser(c *fiber.Ctx) (*models.User, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
