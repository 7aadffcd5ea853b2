package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/codicoteam/school-management-backend/internal/utils"
)

// Locals keys written by the auth middleware. Role guards and the handlers'
// ownership checks read them back.
const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// JWTProtected validates the bearer token issued at login and loads the
// account id and role into the request locals. Login tokens carry sub
// (account id), role, iat and exp, signed HS256.
func JWTProtected(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		token, err := parseBearer(c.Get(fiber.HeaderAuthorization), key)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		// JSON numbers arrive as float64.
		sub, ok := claims["sub"].(float64)
		if !ok || sub <= 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}
		c.Locals(localUserID, uint(sub))

		if role, ok := claims["role"].(string); ok && role != "" {
			c.Locals(localUserRole, strings.ToLower(strings.TrimSpace(role)))
		}

		return c.Next()
	}
}

func parseBearer(header string, key []byte) (*jwt.Token, error) {
	const prefix = "Bearer "
	if header == "" {
		return nil, errors.New("authorization header missing")
	}
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, errors.New("invalid authorization header")
	}

	token, err := jwt.Parse(strings.TrimSpace(header[len(prefix):]), func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}
