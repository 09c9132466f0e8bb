package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/enotgpt/auth-service/internal/service"
	"github.com/enotgpt/auth-service/internal/utils"
)

// fail translates a service error into the HTTP response envelope
// {"status": false, "error": ...}. Domain sentinels map to stable
// statuses; anything unrecognized is a 500 with a generic message so
// storage errors never leak to clients.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, service.ErrAlreadyRegistered):
		status, msg = http.StatusForbidden, "user already registered, confirm registration or sign in"
	case errors.Is(err, service.ErrUserNotFound):
		status, msg = http.StatusNotFound, "user not registered"
	case errors.Is(err, service.ErrUserNotActive):
		status, msg = http.StatusUnauthorized, "user has not completed registration"
	case errors.Is(err, service.ErrCodeNotFound):
		status, msg = http.StatusNotFound, "verification code invalid or not found"
	case errors.Is(err, service.ErrCodeExpired):
		status, msg = http.StatusUnauthorized, "verification code expired, request a new one"
	case errors.Is(err, service.ErrCodeMismatch):
		status, msg = http.StatusUnauthorized, "verification code incorrect"
	case errors.Is(err, service.ErrSessionNotFound):
		status, msg = http.StatusNotFound, "qr session not found"
	case errors.Is(err, service.ErrAlreadyBound):
		status, msg = http.StatusUnauthorized, "qr session already bound"
	case errors.Is(err, service.ErrTimeout):
		status, msg = http.StatusRequestTimeout, "qr session wait timed out"
	case errors.Is(err, service.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "key is not valid"
	case errors.Is(err, utils.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, "token expired, obtain a new one"
	case errors.Is(err, utils.ErrTokenInvalid):
		status, msg = http.StatusUnauthorized, "token invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away mid-wait; nothing meaningful to send.
		status, msg = http.StatusRequestTimeout, "request cancelled"
	}

	return c.JSON(status, echo.Map{"status": false, "error": msg})
}
