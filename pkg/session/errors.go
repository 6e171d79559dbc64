package session

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnregistered       Kind = "unregistered_email"
	KindInvalidInput       Kind = "invalid_input"
	KindNetwork            Kind = "network"
)

type AuthError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsKind reports whether err is an AuthError of kind k.
func IsKind(err error, k Kind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == k
}

func asAuthError(op string, err error) error {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return &AuthError{Op: op, Kind: KindNetwork, Err: err}
}
