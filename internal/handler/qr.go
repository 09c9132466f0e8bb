package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/enotgpt/auth-service/internal/service"
)

// QRHandler exposes the cross-device login handshake.
type QRHandler struct {
	QR *service.QRService
}

func NewQRHandler(qr *service.QRService) *QRHandler { return &QRHandler{QR: qr} }

// CreateSession starts a handshake and returns the token to display
// and the URL the scanning device should follow.
func (h *QRHandler) CreateSession(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	session, err := h.QR.CreateSession(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "token": session.Token, "url": session.URL})
}

// Bind attaches the authenticated caller to the session named in the
// path. Requires a valid bearer token; the JWT middleware puts the
// user id in context.
func (h *QRHandler) Bind(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": false, "error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.QR.Bind(ctx, c.Param("token"), userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true})
}

// LongPoll blocks until the session is bound and returns the token
// pair, or times out. The loop runs on the request context so a
// disconnecting client cancels the wait; no short handler timeout is
// applied here.
func (h *QRHandler) LongPoll(c echo.Context) error {
	pair, err := h.QR.Await(c.Request().Context(), c.Param("token"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}
