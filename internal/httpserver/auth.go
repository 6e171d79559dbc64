package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/resto_admin/internal/logging"
	authmw "github.com/Skotchmaster/resto_admin/internal/middleware/auth"
	"github.com/Skotchmaster/resto_admin/internal/service"
	"github.com/Skotchmaster/resto_admin/internal/tokens"
	"github.com/Skotchmaster/resto_admin/internal/transport"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	SecureCookie bool
}

func (h *AuthHTTP) setCookies(c echo.Context, res *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, h.SecureCookie))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, h.SecureCookie))
}

func (h *AuthHTTP) clearCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.SecureCookie))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.SecureCookie))
}

func loginResponse(res *service.LoginResult) transport.LoginResponse {
	return transport.LoginResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp.Unix(),
		RefreshExp:   res.RefreshExp.Unix(),
		Session:      res.Session,
	}
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "login_failed", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	h.setCookies(c, res)
	l.Info("login_success", "state", res.Session.State.String())
	return c.JSON(http.StatusOK, loginResponse(res))
}

// refreshToken reads the body first and the cookie second.
func refreshToken(c echo.Context) string {
	var req transport.RefreshRequest
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	res, err := h.Svc.Refresh(ctx, refreshToken(c))
	if err != nil {
		h.clearCookies(c)
		return fail(l, "refresh_failed", err)
	}

	h.setCookies(c, res)
	l.Info("refresh_success")
	return c.JSON(http.StatusOK, loginResponse(res))
}

// Logout always clears the cookies and succeeds for unknown tokens.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	err := h.Svc.Logout(ctx, refreshToken(c))
	h.clearCookies(c)
	if err != nil {
		return fail(l, "logout_failed", err)
	}

	l.Info("logout_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) RequestPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.password_reset")

	var req transport.PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "password_reset_failed", err)
	}

	if _, err := h.Svc.RequestReset(ctx, req.Email); err != nil {
		return fail(l, "password_reset_failed", err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *AuthHTTP) ConfirmPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.password_reset_confirm")

	var req transport.PasswordResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "password_reset_confirm_failed", err)
	}

	if err := h.Svc.ConfirmReset(ctx, req.Token, req.Password); err != nil {
		return fail(l, "password_reset_confirm_failed", err)
	}
	h.clearCookies(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Session(c echo.Context) error {
	ctx := c.Request().Context()
	u := authmw.User(c)
	if u == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	return c.JSON(http.StatusOK, h.Svc.Session(ctx, u.UID, u.Email, u.DisplayName))
}

func (h *AuthHTTP) TouchLastLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.touch_last_login")

	if err := h.Svc.TouchLastLogin(ctx, authmw.UserID(c)); err != nil {
		return fail(l, "touch_last_login_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) GetOperator(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.get_operator")

	u := authmw.User(c)
	if u == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	requester := h.Svc.Session(ctx, u.UID, u.Email, u.DisplayName)

	op, err := h.Svc.Operator(ctx, requester, c.Param("uid"))
	if err != nil {
		return fail(l, "get_operator_failed", err)
	}
	return c.JSON(http.StatusOK, op)
}

func (h *AuthHTTP) RegisterOperator(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register_operator")

	var req transport.RegisterOperatorRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "register_operator_failed", err)
	}

	op, err := h.Svc.RegisterOperator(ctx, authmw.UserID(c), req)
	if err != nil {
		return fail(l, "register_operator_failed", err)
	}

	l.Info("register_operator_success", "uid", op.UID)
	return c.JSON(http.StatusCreated, op)
}
