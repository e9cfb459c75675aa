package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/himilo-dev/homeman-api/internal/middleware"
	"github.com/himilo-dev/homeman-api/internal/models"
	"github.com/himilo-dev/homeman-api/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int // minutes
	Redis     *redis.Client
}

type RegisterReq struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     string   `json:"role"` // client / pro (admin is seeded, never public)
	Location string   `json:"location"`
	Phone    string   `json:"phone"`
	Skills   []string `json:"skills"`
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func serverError(c *fiber.Ctx, log string, err error) error {
	zap.L().Error(log, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Server Error",
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	phone := strings.TrimSpace(req.Phone)

	role := models.RoleClient
	if strings.ToLower(strings.TrimSpace(req.Role)) == string(models.RolePro) {
		role = models.RolePro
	}

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "Name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Invalid email format")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email already exists",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return serverError(c, "register: email lookup failed", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return serverError(c, "register: password hash failed", err)
	}

	location := models.NormalizeLocation(req.Location)
	if location == "" {
		location = "not specified"
	}

	// Skills only make sense on a pro account.
	var skills datatypes.JSONSlice[string]
	if role == models.RolePro {
		skills = datatypes.NewJSONSlice(req.Skills)
	}

	u := models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     role,
		Location: location,
		Phone:    phone,
		Skills:   skills,
	}
	if err := h.DB.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Email already exists",
			})
		}
		return serverError(c, "register: create failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"userId":  u.ID,
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	var u models.User
	err := h.DB.Where("email = ?", email).First(&u).Error

	// Same answer whether the user is missing or the password is wrong.
	if err != nil || !utils.CheckPassword(u.Password, password) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials",
		})
	}

	if h.JWTSecret == "" {
		zap.L().Error("login: JWT secret is not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server configuration error",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return serverError(c, "login: token sign failed", err)
	}

	// Profile ships with the token so the frontend skips a /me round trip.
	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"role":    u.Role,
		"user": fiber.Map{
			"id":       u.ID,
			"name":     u.Name,
			"email":    u.Email,
			"location": u.Location,
			"skills":   u.Skills,
			"role":     u.Role,
		},
	})
}

// Logout revokes the presented token for its remaining lifetime. Without
// Redis there is nothing to revoke against, so it is just an acknowledgment.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if h.Redis != nil {
		if tokenStr, ok := c.Locals("token").(string); ok && tokenStr != "" {
			ttl := time.Duration(h.Expires) * time.Minute
			if claims, err := utils.ParseJWT(h.JWTSecret, tokenStr); err == nil && claims.ExpiresAt != nil {
				if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
					ttl = remaining
				}
			}
			if err := h.Redis.Set(c.Context(), middleware.RevokedKeyPrefix+tokenStr, "1", ttl).Err(); err != nil {
				zap.L().Warn("logout: revoke failed", zap.Error(err))
			}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}
