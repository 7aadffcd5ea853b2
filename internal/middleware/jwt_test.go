package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, secret string) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub":  42,
		"role": "Receptionist",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTProtected(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals(localUserID),
			"role":    c.Locals(localUserRole),
		})
	})
	return app
}

func TestJWTProtectedLoadsLocals(t *testing.T) {
	app := fiber.New()
	var gotID uint
	var gotRole string
	app.Get("/me", JWTProtected(testSecret), func(c *fiber.Ctx) error {
		gotID, _ = c.Locals(localUserID).(uint)
		gotRole, _ = c.Locals(localUserRole).(string)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), gotID)
	require.Equal(t, "receptionist", gotRole)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := protectedApp()

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestJWTProtectedRejectsWrongKey(t *testing.T) {
	app := protectedApp()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, jwt.SigningMethodHS256, "some-other-secret"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
