// Package session decides whether the caller is a signed-in operator.
//
// Privileges resolves a signed-in user against the operator records and
// fails closed. Gate wraps an identity Provider for sign in, sign out and
// password reset. Holder keeps the current Session for a long-lived client
// and is driven by the provider's auth-change subscription.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

// User is the opaque handle returned by the identity provider.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*User, error)
	// SubscribeAuthChanges calls fn with the current user (nil when signed
	// out) once the provider knows it, and again on every change.
	SubscribeAuthChanges(fn func(*User)) (unsubscribe func())
	SignOut(ctx context.Context) error
	SendReset(ctx context.Context, email string) error
}

type OperatorStore interface {
	// Operator returns nil, nil when uid has no operator record.
	Operator(ctx context.Context, uid string) (*domain.Operator, error)
	TouchLastLogin(ctx context.Context, uid string, at time.Time) error
}

type State int

const (
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
	StatePrivileged
)

var stateNames = map[State]string{
	StateUnknown:         "unknown",
	StateUnauthenticated: "unauthenticated",
	StateAuthenticated:   "authenticated_non_privileged",
	StatePrivileged:      "authenticated_privileged",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for k, v := range stateNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", string(b))
}

type Session struct {
	State        State       `json:"state"`
	User         *User       `json:"user,omitempty"`
	IsPrivileged bool        `json:"is_privileged"`
	Role         domain.Role `json:"role,omitempty"`
	DisplayName  string      `json:"display_name,omitempty"`
}

func Unauthenticated() Session {
	return Session{State: StateUnauthenticated}
}

type Decision int

const (
	DecisionWait Decision = iota
	DecisionRedirectLogin
	DecisionRedirectUnauthorized
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectUnauthorized:
		return "redirect_unauthorized"
	case DecisionAllow:
		return "allow"
	}
	return "unknown"
}

// Decide is the route guard for protected views. Unknown waits rather than
// redirecting so nothing flickers before the first auth callback.
func Decide(s Session) Decision {
	switch s.State {
	case StatePrivileged:
		return DecisionAllow
	case StateAuthenticated:
		return DecisionRedirectUnauthorized
	case StateUnauthenticated:
		return DecisionRedirectLogin
	default:
		return DecisionWait
	}
}
