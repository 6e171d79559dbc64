package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/resto_admin/internal/repo"
)

var (
	ErrValidation          = errors.New("validation")            // 400
	ErrInvalidCredentials  = errors.New("invalid credentials")   // 401
	ErrInvalidRefreshToken = errors.New("invalid refresh token") // 401
	ErrForbidden           = errors.New("forbidden")             // 403
	ErrNotFound            = errors.New("not found")             // 404
	ErrUnregistered        = errors.New("unregistered email")    // 404
	ErrConflict            = errors.New("conflict")              // 409
)

// notFound turns repo.ErrNotFound into ErrNotFound and passes anything
// else through unchanged.
func notFound(err error, what string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
