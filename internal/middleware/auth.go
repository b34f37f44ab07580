// Package middleware provides the fiber middleware for the transaction API.
package middleware

import (
	"strings"

	"scanpay/internal/logger"
	"scanpay/internal/models"
	"scanpay/internal/utils"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

// AuthMiddleware validates bearer tokens issued by utils.GenerateToken.
type AuthMiddleware struct {
	secret string
	log    logger.Logger
}

func NewAuthMiddleware(secret string, log logger.Logger) *AuthMiddleware {
	if log == nil {
		panic("logger is required")
	}
	return &AuthMiddleware{secret: secret, log: log}
}

// Handler rejects requests without a valid token and stores the claims on
// the request context.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.Warn("token rejected", map[string]any{"path": c.Path(), "error": err})
		return response.Error(c, fiber.StatusUnauthorized, "invalid token")
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFrom returns the claims stored by Handler.
func ClaimsFrom(c *fiber.Ctx) (*models.APIClaims, bool) {
	claims, ok := c.Locals(claimsKey).(*models.APIClaims)
	return claims, ok && claims != nil
}

// HasPermission returns a middleware that checks for a specific permission.
// Operators pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return response.Unauthorized(c)
		}
		if claims.Role == models.RoleOperator || claims.HasPermission(permission) {
			return c.Next()
		}
		return response.Error(c, fiber.StatusForbidden, "insufficient permissions")
	}
}
