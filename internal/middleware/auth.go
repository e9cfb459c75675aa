package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/himilo-dev/homeman-api/internal/utils"
)

// RevokedKeyPrefix namespaces revoked tokens in Redis.
const RevokedKeyPrefix = "homeman:revoked:"

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

// RequireAuth verifies the bearer token and attaches userId/role/token to
// locals. rdb may be nil; revocation checks are skipped without Redis.
func RequireAuth(secret string, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Server configuration error",
			})
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer") {
			return unauthorized(c, "Not authorized, token missing")
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if tokenStr == "" {
			return unauthorized(c, "Not authorized, malformed token")
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return unauthorized(c, "Token expired")
			}
			return unauthorized(c, "Invalid token")
		}

		if rdb != nil {
			if n, err := rdb.Exists(c.Context(), RevokedKeyPrefix+tokenStr).Result(); err == nil && n > 0 {
				return unauthorized(c, "Token revoked")
			}
		}

		uid := strings.TrimSpace(claims.UserID)
		if uid == "" {
			return unauthorized(c, "Invalid token")
		}

		c.Locals("userId", uid)
		c.Locals("role", strings.ToLower(strings.TrimSpace(claims.Role)))
		c.Locals("token", tokenStr)
		return c.Next()
	}
}
