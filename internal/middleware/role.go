package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated user holds at least one of the specified roles. The
// role names correspond to the values stored in the JWT's "roles"
// claim, which JWTAuth extracts into the context as a []string. When
// none of the user's roles is in the allowed set, the request is
// aborted with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            held, ok := c.Get("roles").([]string)
            if !ok {
                return c.JSON(http.StatusForbidden, echo.Map{"status": false, "error": "forbidden"})
            }
            for _, r := range held {
                if allowed[r] {
                    return next(c)
                }
            }
            return c.JSON(http.StatusForbidden, echo.Map{"status": false, "error": "forbidden"})
        }
    }
}
