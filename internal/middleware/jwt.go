package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the authenticated identity into the request context. The
// provided secret must match the one used when issuing tokens. Handlers
// behind this middleware read the identity via c.Get("user_id"),
// c.Get("email") and c.Get("name"); email and name are what the review
// engine and the denormalized history fields key on.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret; reject other signing methods.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// JWT numbers decode as float64; normalize the subject so
			// downstream code sees a uint64 user ID.
			if sub, ok := claims["sub"].(float64); ok {
				c.Set("user_id", uint64(sub))
			} else {
				c.Set("user_id", claims["sub"])
			}
			if email, ok := claims["email"].(string); ok {
				c.Set("email", email)
			}
			if name, ok := claims["name"].(string); ok {
				c.Set("name", name)
			}
			return next(c)
		}
	}
}
