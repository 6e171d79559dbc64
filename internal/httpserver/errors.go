package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/resto_admin/internal/service"
)

// fail logs err under event and converts it into the HTTP error the client
// sees. Server-side failures are logged at error level with a generic
// message; client errors carry the service message.
func fail(l *slog.Logger, event string, err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRefreshToken):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnregistered):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrConflict), service.IsInvalidTransition(err):
		code = http.StatusConflict
	}

	if code == http.StatusInternalServerError {
		l.Error(event, "status", code, "reason", "internal error", "error", err)
		return echo.NewHTTPError(code, "internal error")
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, err.Error())
}

func badBody(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}
