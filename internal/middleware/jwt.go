package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"   // sentinel comparison for token verification failures
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/enotgpt/auth-service/internal/utils" // access token verification
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's subject and role claims into the
// request context. The provided secret must match the one used when
// issuing tokens. Handlers behind this middleware read the
// authenticated user via `c.Get("user_id").(uint64)` and
// `c.Get("roles").([]string)`. Expired tokens are reported separately
// from malformed ones so clients know to exchange their refresh
// token rather than log in again.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"status": false, "error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := utils.VerifyAccessToken(secret, raw)
            if err != nil {
                if errors.Is(err, utils.ErrTokenExpired) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"status": false, "error": "token expired"})
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"status": false, "error": "invalid token"})
            }

            c.Set("user_id", claims.UserID)
            c.Set("roles", claims.Roles)
            return next(c)
        }
    }
}
