// Package auth guards the API routes with the access token and the
// operator privilege check.
package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/resto_admin/internal/logging"
	"github.com/Skotchmaster/resto_admin/internal/tokens"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
	"github.com/Skotchmaster/resto_admin/pkg/session"
)

const (
	ctxUser    = "user"
	ctxSession = "session"
)

type Middleware struct {
	AccessSecret []byte
	Privileges   *session.Privileges
	SecureCookie bool
}

// accessToken prefers the Authorization header and falls back to the
// accessToken cookie.
func accessToken(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok && tok != "" {
			return tok, false
		}
	}
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok, fromCookie := accessToken(c)
		if tok == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(tok, m.AccessSecret)
		if err != nil {
			logging.FromContext(c.Request().Context()).Warn("auth_rejected", "status", 401, "reason", "invalid access token", "error", err)
			if fromCookie {
				c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", m.SecureCookie))
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(ctxUser, &session.User{UID: claims.Subject, Email: claims.Email, DisplayName: claims.Name})
		return next(c)
	}
}

// RequireOperator admits only users with an admin or superadmin operator
// record. It must run after RequireAuth.
func (m *Middleware) RequireOperator(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := m.resolve(c)
		if err != nil {
			return err
		}
		if !s.IsPrivileged {
			logging.FromContext(c.Request().Context()).Warn("auth_rejected", "status", 403, "reason", "not an operator", "uid", s.User.UID)
			return echo.NewHTTPError(http.StatusForbidden, "operator access required")
		}
		return next(c)
	}
}

// RequireRole admits only operators holding role. It must run after
// RequireAuth.
func (m *Middleware) RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := m.resolve(c)
			if err != nil {
				return err
			}
			if !s.IsPrivileged || s.Role != role {
				logging.FromContext(c.Request().Context()).Warn("auth_rejected", "status", 403, "reason", "role required", "role", string(role))
				return echo.NewHTTPError(http.StatusForbidden, string(role)+" access required")
			}
			return next(c)
		}
	}
}

func (m *Middleware) resolve(c echo.Context) (session.Session, error) {
	if s, ok := CurrentSession(c); ok {
		return s, nil
	}
	u := User(c)
	if u == nil {
		return session.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	s := m.Privileges.Resolve(c.Request().Context(), u)
	c.Set(ctxSession, s)
	return s, nil
}

// User returns the authenticated user, or nil before RequireAuth ran.
func User(c echo.Context) *session.User {
	u, _ := c.Get(ctxUser).(*session.User)
	return u
}

// UserID returns the subject of the access token, or "".
func UserID(c echo.Context) string {
	if u := User(c); u != nil {
		return u.UID
	}
	return ""
}

// CurrentSession returns the session resolved by RequireOperator or
// RequireRole.
func CurrentSession(c echo.Context) (session.Session, bool) {
	s, ok := c.Get(ctxSession).(session.Session)
	return s, ok
}
