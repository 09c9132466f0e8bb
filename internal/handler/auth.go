package handler

import (
    "context"              // context with cancellation for DB calls
    "net/http"             // HTTP status codes and primitives
    "strings"              // request field normalization
    "time"                 // timeouts for DB calls and date parsing

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/enotgpt/auth-service/internal/config"  // app configuration
    "github.com/enotgpt/auth-service/internal/model"   // contact variants
    "github.com/enotgpt/auth-service/internal/service" // auth flows
)

// AuthHandler bundles dependencies for the registration, auth,
// telegram and token endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Reg    *service.RegistrationService
	Auth   *service.AuthService
	Tokens *service.TokenService
}

func NewAuthHandler(cfg config.Config, reg *service.RegistrationService, auth *service.AuthService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Reg: reg, Auth: auth, Tokens: tokens}
}

// ----- DTOs -----

type profileFields struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	MiddleName *string `json:"middle_name"`
	BirthDate  *string `json:"birth_date"` // YYYY-MM-DD
	Gender     *int    `json:"gender"`
}

type registerPhoneReq struct {
	profileFields
	PhoneNumber string `json:"phone_number"`
}
type registerEmailReq struct {
	profileFields
	Email string `json:"email"`
}

type confirmPhoneReq struct {
	CodeID      uint64 `json:"code_id"`
	Code        int    `json:"code"`
	PhoneNumber string `json:"phone_number"`
}
type confirmEmailReq struct {
	CodeID uint64 `json:"code_id"`
	Code   int    `json:"code"`
	Email  string `json:"email"`
}

type codeByPhoneReq struct {
	PhoneNumber string `json:"phone_number"`
}
type codeByEmailReq struct {
	Email string `json:"email"`
}

// Telegram requests repeat the regular shapes plus the shared bot key
// in the password field, matching the bot's existing contract.
type tgCodeByPhoneReq struct {
	codeByPhoneReq
	Password string `json:"password"`
}
type tgCodeByEmailReq struct {
	codeByEmailReq
	Password string `json:"password"`
}
type tgConfirmPhoneReq struct {
	confirmPhoneReq
	Password string `json:"password"`
}
type tgConfirmEmailReq struct {
	confirmEmailReq
	Password string `json:"password"`
}

type changeTokenReq struct {
	RefreshToken string `json:"refresh_token"`
}

// ----- request validation -----

func validPhone(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "error": msg})
}

func (p profileFields) toProfile() (service.Profile, bool) {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return service.Profile{}, false
	}
	out := service.Profile{
		FirstName:  strings.TrimSpace(p.FirstName),
		LastName:   strings.TrimSpace(p.LastName),
		MiddleName: p.MiddleName,
		Gender:     p.Gender,
	}
	if p.BirthDate != nil && *p.BirthDate != "" {
		d, err := time.Parse("2006-01-02", *p.BirthDate)
		if err != nil {
			return service.Profile{}, false
		}
		out.BirthDate = &d
	}
	return out, true
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// ----- registration -----

// RegisterByPhone creates a dormant user for a phone number and
// returns the id of the registration code sent to it.
func (h *AuthHandler) RegisterByPhone(c echo.Context) error {
	var req registerPhoneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validPhone(req.PhoneNumber) {
		return badRequest(c, "phone_number must be digits only")
	}
	profile, ok := req.toProfile()
	if !ok {
		return badRequest(c, "first_name and last_name required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	codeID, err := h.Reg.Register(ctx, model.ByPhone(req.PhoneNumber), profile)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "code_id": codeID})
}

// RegisterByEmail creates a dormant user for an email address and
// returns the id of the registration code sent to it.
func (h *AuthHandler) RegisterByEmail(c echo.Context) error {
	var req registerEmailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validEmail(req.Email) {
		return badRequest(c, "valid email required")
	}
	profile, ok := req.toProfile()
	if !ok {
		return badRequest(c, "first_name and last_name required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	codeID, err := h.Reg.Register(ctx, model.ByEmail(req.Email), profile)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "code_id": codeID})
}

// ConfirmRegistrationPhone activates the user and returns the first
// token pair.
func (h *AuthHandler) ConfirmRegistrationPhone(c echo.Context) error {
	var req confirmPhoneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validPhone(req.PhoneNumber) {
		return badRequest(c, "phone_number must be digits only")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Reg.Confirm(ctx, req.CodeID, model.ByPhone(req.PhoneNumber), req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// ConfirmRegistrationEmail activates the user and returns the first
// token pair.
func (h *AuthHandler) ConfirmRegistrationEmail(c echo.Context) error {
	var req confirmEmailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validEmail(req.Email) {
		return badRequest(c, "valid email required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Reg.Confirm(ctx, req.CodeID, model.ByEmail(req.Email), req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// ----- authorization -----

// CodeByPhone issues an auth code for an active user's phone.
func (h *AuthHandler) CodeByPhone(c echo.Context) error {
	var req codeByPhoneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validPhone(req.PhoneNumber) {
		return badRequest(c, "phone_number must be digits only")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	codeID, err := h.Auth.RequestCode(ctx, model.ByPhone(req.PhoneNumber))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "code_id": codeID})
}

// CodeByEmail issues an auth code for an active user's email.
func (h *AuthHandler) CodeByEmail(c echo.Context) error {
	var req codeByEmailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validEmail(req.Email) {
		return badRequest(c, "valid email required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	codeID, err := h.Auth.RequestCode(ctx, model.ByEmail(req.Email))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "code_id": codeID})
}

// ConfirmPhone exchanges a confirmed auth code for a token pair.
func (h *AuthHandler) ConfirmPhone(c echo.Context) error {
	var req confirmPhoneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validPhone(req.PhoneNumber) {
		return badRequest(c, "phone_number must be digits only")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Confirm(ctx, req.CodeID, model.ByPhone(req.PhoneNumber), req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// ConfirmEmail exchanges a confirmed auth code for a token pair.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	var req confirmEmailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if !validEmail(req.Email) {
		return badRequest(c, "valid email required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.Confirm(ctx, req.CodeID, model.ByEmail(req.Email), req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// ----- telegram -----

// TelegramCodeByPhone issues an auth code for the bot integration.
// The shared key is verified before anything else.
func (h *AuthHandler) TelegramCodeByPhone(c echo.Context) error {
	var req tgCodeByPhoneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	codeID, err := h.Auth.TelegramRequestCode(ctx, req.Password, model.ByPhone(req.PhoneNumber))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "code_id": codeID})
}

// TelegramCodeByEmail issues an auth code for the bot integration.
func (h *AuthHandler) TelegramCodeByEmail(c echo.Context) error {
	var req tgCodeByEmailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	codeID, err := h.Auth.TelegramRequestCode(ctx, req.Password, model.ByEmail(req.Email))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "code_id": codeID})
}

// TelegramConfirmPhone exchanges a code for a long-lived access token
// without a refresh token.
func (h *AuthHandler) TelegramConfirmPhone(c echo.Context) error {
	var req tgConfirmPhoneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.TelegramConfirm(ctx, req.Password, req.CodeID, model.ByPhone(req.PhoneNumber), req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "access_token": pair.AccessToken, "refresh_token": ""})
}

// TelegramConfirmEmail exchanges a code for a long-lived access token
// without a refresh token.
func (h *AuthHandler) TelegramConfirmEmail(c echo.Context) error {
	var req tgConfirmEmailReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Auth.TelegramConfirm(ctx, req.Password, req.CodeID, model.ByEmail(req.Email), req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "access_token": pair.AccessToken, "refresh_token": ""})
}

// ----- tokens and profile -----

// ChangeToken exchanges a refresh token for a fresh access token. The
// refresh token is not rotated.
func (h *AuthHandler) ChangeToken(c echo.Context) error {
	var req changeTokenReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Tokens.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "access_token": access})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": false, "error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	resp := echo.Map{
		"status":             true,
		"id":                 u.ID,
		"first_name":         u.FirstName,
		"last_name":          u.LastName,
		"middle_name":        u.MiddleName,
		"birth_date":         u.BirthDate,
		"gender":             u.Gender,
		"email":              u.Email,
		"phone_number":       u.PhoneNumber,
		"is_email_confirmed": u.IsEmailConfirmed,
		"is_phone_confirmed": u.IsPhoneConfirmed,
	}
	return c.JSON(http.StatusOK, resp)
}
