package session

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/resto_admin/internal/logging"
)

// Privileges decides whether a signed-in user is an operator.
type Privileges struct {
	Store OperatorStore
}

// Resolve never fails. A missing operator record, a role outside admin and
// superadmin, or a store error all yield StateAuthenticated.
func (p *Privileges) Resolve(ctx context.Context, u *User) Session {
	if u == nil || u.UID == "" {
		return Unauthenticated()
	}

	s := Session{State: StateAuthenticated, User: u, DisplayName: u.DisplayName}
	if p == nil || p.Store == nil {
		return s
	}

	op, err := p.Store.Operator(ctx, u.UID)
	if err != nil {
		logging.FromContext(ctx).Warn("privilege_check_failed", "uid", u.UID, "error", err)
		return s
	}
	if op == nil || !op.Role.Privileged() {
		return s
	}

	s.State = StatePrivileged
	s.IsPrivileged = true
	s.Role = op.Role
	if op.DisplayName != "" {
		s.DisplayName = op.DisplayName
	}
	return s
}

type Gate struct {
	Provider   Provider
	Privileges *Privileges
	Now        func() time.Time
}

func NewGate(p Provider, store OperatorStore) *Gate {
	return &Gate{
		Provider:   p,
		Privileges: &Privileges{Store: store},
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// SignIn authenticates with the provider, records the last-login marker
// and returns the resolved session. The marker is best effort.
func (g *Gate) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Unauthenticated(), &AuthError{Op: "sign_in", Kind: KindInvalidInput}
	}

	u, err := g.Provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Unauthenticated(), asAuthError("sign_in", err)
	}
	if u == nil {
		return Unauthenticated(), &AuthError{Op: "sign_in", Kind: KindInvalidCredentials}
	}

	l := logging.FromContext(ctx).With("op", "sign_in", "uid", u.UID)
	if g.Privileges != nil && g.Privileges.Store != nil {
		if err := g.Privileges.Store.TouchLastLogin(ctx, u.UID, g.now()); err != nil {
			l.Warn("touch_last_login_failed", "error", err)
		}
	}

	s := g.Privileges.Resolve(ctx, u)
	l.Info("signed_in", "state", s.State.String())
	return s, nil
}

// SignOut is idempotent.
func (g *Gate) SignOut(ctx context.Context) error {
	if err := g.Provider.SignOut(ctx); err != nil {
		return asAuthError("sign_out", err)
	}
	return nil
}

func (g *Gate) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return &AuthError{Op: "password_reset", Kind: KindInvalidInput}
	}
	if err := g.Provider.SendReset(ctx, email); err != nil {
		return asAuthError("password_reset", err)
	}
	return nil
}

// Resolve exposes the privilege check for callers that already hold a user.
func (g *Gate) Resolve(ctx context.Context, u *User) Session {
	return g.Privileges.Resolve(ctx, u)
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now().UTC()
}

func ValidEmail(email string) bool {
	if email == "" {
		return false
	}
	a, err := mail.ParseAddress(email)
	return err == nil && a.Address == email
}
