package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/enotgpt/auth-service/internal/handler"    // handlers implementing the endpoints
	"github.com/enotgpt/auth-service/internal/middleware" // JWT authentication and role checks
	"github.com/enotgpt/auth-service/internal/model"      // default role name
)

// RegisterRoutes registers routes that do not belong to the auth API:
// currently only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the registration, authorization, telegram,
// token and profile endpoints under /api. The code-request endpoints
// get the rate limiter because each allowed request sends a code out
// of band; confirmation endpoints are limited only by their
// single-use codes. Protected endpoints take the JWT middleware with
// the signing secret used at issuance.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, qr *handler.QRHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	api := e.Group("/api")

	// Registration: request a code, then confirm it.
	api.POST("/registration_by_phone", a.RegisterByPhone, limiter)
	api.POST("/registration_by_email", a.RegisterByEmail, limiter)
	api.POST("/registration_confirm_phone", a.ConfirmRegistrationPhone)
	api.POST("/registration_confirm_email", a.ConfirmRegistrationEmail)

	// Authorization for already-registered users.
	api.POST("/auth/get_code_by_phone", a.CodeByPhone, limiter)
	api.POST("/auth/get_code_by_email", a.CodeByEmail, limiter)
	api.POST("/auth/confirm_phone", a.ConfirmPhone)
	api.POST("/auth/confirm_email", a.ConfirmEmail)

	// Telegram bot variants, gated on the shared key inside the
	// handler before any other validation.
	api.POST("/auth/telegram/get_code/phone", a.TelegramCodeByPhone, limiter)
	api.POST("/auth/telegram/get_code/email", a.TelegramCodeByEmail, limiter)
	api.POST("/auth/telegram/confirm_phone", a.TelegramConfirmPhone)
	api.POST("/auth/telegram/confirm_email", a.TelegramConfirmEmail)

	// Token exchange.
	api.POST("/change_token", a.ChangeToken)

	// QR handshake. Creating and polling are anonymous: the polling
	// device is the one that is not logged in yet. Binding requires
	// the scanning device's bearer token.
	api.GET("/auth/qr", qr.CreateSession)
	api.GET("/qr/longpoll/:token", qr.LongPoll)
	api.GET("/qr_code/auth/:token", qr.Bind,
		middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.DefaultRoleName))

	// Profile.
	api.GET("/users/me", a.Me,
		middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.DefaultRoleName))
}
