package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
)

// Auth validates the bearer token and injects the claims into context under
// "user_id", "correo", and "rol". The role comes from the token, never the
// store: a role changed server-side after issuance is not seen until
// re-authentication.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			correo, _ := claims["correo"].(string)
			rol, _ := claims["rol"].(string)
			if rol == "" {
				// Explicit default-role rule: a token without a rol claim is a
				// client token.
				rol = domain.RoleClient
			}

			c.Set("user_id", sub)
			c.Set("correo", correo)
			c.Set("rol", rol)

			return next(c)
		}
	}
}
