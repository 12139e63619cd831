package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenhacks/KVISION/internal/models"
)

const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// JWTAuth validates the bearer token issued by the identity service and puts
// the user id and role claims into request locals.
func JWTAuth(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" {
			// Browsers cannot set headers on websocket upgrades; allow the
			// token as a query parameter there.
			if t := c.Query("token"); t != "" {
				auth = "Bearer " + t
			}
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization"})
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		var uid string
		if v, ok := claims["user_id"].(string); ok && v != "" {
			uid = v
		} else if v, ok := claims["sub"].(string); ok && v != "" {
			uid = v
		} else {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user id in token"})
		}
		role, _ := claims["role"].(string)

		c.Locals(LocalUserID, uid)
		c.Locals(LocalRole, models.Role(role))
		return c.Next()
	}
}

// UserFromCtx reads the identity stored by JWTAuth.
func UserFromCtx(c *fiber.Ctx) (string, models.Role) {
	uid, _ := c.Locals(LocalUserID).(string)
	role, _ := c.Locals(LocalRole).(models.Role)
	return uid, role
}
