package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/resto_admin/internal/events"
	"github.com/Skotchmaster/resto_admin/internal/hash"
	"github.com/Skotchmaster/resto_admin/internal/logging"
	"github.com/Skotchmaster/resto_admin/internal/models"
	"github.com/Skotchmaster/resto_admin/internal/repo"
	"github.com/Skotchmaster/resto_admin/internal/tokens"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
	"github.com/Skotchmaster/resto_admin/pkg/session"
)

const minPasswordLen = 6

type AuthService struct {
	Repo       *repo.GormRepo
	Signer     *tokens.Signer
	Privileges *session.Privileges
	Events     events.Publisher

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	Now func() time.Time
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Session      session.Session
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AuthService) issue(ctx context.Context, a *models.Account) (*LoginResult, *models.RefreshToken, error) {
	now := s.now()
	accessExp := now.Add(s.AccessTTL)
	access, err := s.Signer.Access(a.ID, a.Email, a.DisplayName, accessExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access: %w", err)
	}

	refreshExp := now.Add(s.RefreshTTL)
	refresh, jti, err := s.Signer.Refresh(a.ID, refreshExp)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh: %w", err)
	}

	res := &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Session:      s.Session(ctx, a.ID, a.Email, a.DisplayName),
	}
	row := &models.RefreshToken{
		JTI:       jti,
		UserID:    a.ID,
		TokenHash: hash.Sha256Hex(refresh),
		ExpiresAt: refreshExp,
	}
	return res, row, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	acc, err := s.Repo.AccountByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		l.Warn("login_failed", "status", 401, "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(acc.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	res, row, err := s.issue(ctx, acc)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SaveRefresh(ctx, row); err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicAuth, acc.ID, events.New("signed_in", acc.ID, map[string]any{
		"privileged": res.Session.IsPrivileged,
	}))
	l.Info("login_ok", "uid", acc.ID, "state", res.Session.State.String())
	return res, nil
}

// Refresh rotates refreshToken. A token can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.Signer.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "bad token", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	acc, err := s.Repo.AccountByID(ctx, claims.Subject)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	res, row, err := s.issue(ctx, acc)
	if err != nil {
		return nil, err
	}
	err = s.Repo.RotateRefresh(ctx, claims.ID, hash.Sha256Hex(refreshToken), row, s.now())
	if errors.Is(err, repo.ErrTokenRevoked) || errors.Is(err, repo.ErrNotFound) {
		l.Warn("refresh_failed", "status", 401, "reason", "revoked or unknown", "uid", acc.ID)
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Logout revokes refreshToken. Unknown or empty tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefresh(ctx, hash.Sha256Hex(refreshToken))
}

// RequestReset records a single-use reset token and hands it to the
// auth_events topic for out-of-band delivery. The token is returned for
// callers that deliver it themselves.
func (s *AuthService) RequestReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	l := logging.FromContext(ctx).With("svc", "auth.password_reset")
	if !session.ValidEmail(email) {
		return "", fmt.Errorf("%w: malformed email", ErrValidation)
	}

	acc, err := s.Repo.AccountByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		l.Warn("password_reset_failed", "status", 404, "reason", "unregistered email")
		return "", ErrUnregistered
	}
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	expires := s.now().Add(s.ResetTTL)
	if err := s.Repo.CreateReset(ctx, &models.PasswordReset{
		UserID:    acc.ID,
		TokenHash: hash.Sha256Hex(token),
		ExpiresAt: expires,
	}); err != nil {
		return "", err
	}

	events.Publish(ctx, s.Events, events.TopicAuth, acc.ID, events.New("password_reset_requested", acc.ID, map[string]any{
		"email":      acc.Email,
		"token":      token,
		"expires_at": expires,
	}))
	l.Info("password_reset_requested", "uid", acc.ID)
	return token, nil
}

// ConfirmReset sets a new password and signs the account out everywhere.
func (s *AuthService) ConfirmReset(ctx context.Context, token, password string) error {
	if token == "" {
		return fmt.Errorf("%w: token required", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	pw, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	uid, err := s.Repo.ConsumeReset(ctx, hash.Sha256Hex(token), pw, s.now())
	if errors.Is(err, repo.ErrTokenRevoked) || errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: reset token invalid or expired", ErrValidation)
	}
	if err != nil {
		return err
	}

	events.Publish(ctx, s.Events, events.TopicAuth, uid, events.New("password_reset_completed", uid, nil))
	return nil
}

// RegisterOperator creates an account with an operator record. The
// default role is admin.
func (s *AuthService) RegisterOperator(ctx context.Context, actor string, req transport.RegisterOperatorRequest) (*domain.Operator, error) {
	email, err := checkSignUp(req)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = domain.RoleAdmin
	}
	if !role.Privileged() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	pw, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	op, err := s.Repo.CreateOperator(ctx, &models.Account{
		Email:        email,
		PasswordHash: pw,
		DisplayName:  strings.TrimSpace(req.DisplayName),
	}, role)
	if errors.Is(err, repo.ErrAlreadyExists) {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicAuth, op.UID, events.New("operator_registered", actor, op))
	logging.FromContext(ctx).Info("operator_registered", "uid", op.UID, "role", string(op.Role), "by", actor)
	return op, nil
}

func checkSignUp(req transport.RegisterOperatorRequest) (string, error) {
	email := strings.TrimSpace(req.Email)
	if !session.ValidEmail(email) {
		return "", fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if len(req.Password) < minPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	return email, nil
}

// RegisterAccount creates a sign-in account with no operator record. Such
// accounts authenticate but never pass the operator guard. Role is ignored.
func (s *AuthService) RegisterAccount(ctx context.Context, actor string, req transport.RegisterOperatorRequest) (*models.Account, error) {
	email, err := checkSignUp(req)
	if err != nil {
		return nil, err
	}
	pw, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		Email:        email,
		PasswordHash: pw,
		DisplayName:  strings.TrimSpace(req.DisplayName),
	}
	err = s.Repo.CreateAccount(ctx, acc)
	if errors.Is(err, repo.ErrAlreadyExists) {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicAuth, acc.ID, events.New("account_registered", actor, map[string]string{
		"uid":   acc.ID,
		"email": acc.Email,
	}))
	logging.FromContext(ctx).Info("account_registered", "uid", acc.ID, "by", actor)
	return acc, nil
}

// RevokeSessions revokes every refresh token of the account behind email.
// Access tokens already issued stay valid until they expire.
func (s *AuthService) RevokeSessions(ctx context.Context, actor, email string) error {
	email = strings.TrimSpace(email)
	if !session.ValidEmail(email) {
		return fmt.Errorf("%w: malformed email", ErrValidation)
	}
	acc, err := s.Repo.AccountByEmail(ctx, email)
	if err != nil {
		return notFound(err, "account "+email)
	}
	if err := s.Repo.RevokeAllRefresh(ctx, acc.ID); err != nil {
		return err
	}

	events.Publish(ctx, s.Events, events.TopicAuth, acc.ID, events.New("sessions_revoked", actor, map[string]string{"uid": acc.ID}))
	logging.FromContext(ctx).Info("sessions_revoked", "uid", acc.ID, "by", actor)
	return nil
}

// Session resolves the privilege state of an authenticated user.
func (s *AuthService) Session(ctx context.Context, uid, email, name string) session.Session {
	return s.Privileges.Resolve(ctx, &session.User{UID: uid, Email: email, DisplayName: name})
}

// Operator returns the record of uid. Non-privileged callers may only read
// their own.
func (s *AuthService) Operator(ctx context.Context, requester session.Session, uid string) (*domain.Operator, error) {
	if requester.User == nil {
		return nil, ErrForbidden
	}
	if requester.User.UID != uid && !requester.IsPrivileged {
		return nil, fmt.Errorf("%w: operator records of others", ErrForbidden)
	}

	op, err := s.Repo.Operator(ctx, uid)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("%w: operator %s", ErrNotFound, uid)
	}
	return op, nil
}

func (s *AuthService) TouchLastLogin(ctx context.Context, uid string) error {
	return notFound(s.Repo.TouchLastLogin(ctx, uid, s.now()), "operator "+uid)
}

// CreateOperator is the bootstrap path used by adminctl. An existing
// account is promoted instead of failing.
func (s *AuthService) CreateOperator(ctx context.Context, req transport.RegisterOperatorRequest) (*domain.Operator, error) {
	req.Email = strings.TrimSpace(req.Email)
	op, err := s.RegisterOperator(ctx, "adminctl", req)
	if !errors.Is(err, ErrConflict) {
		return op, err
	}

	acc, err := s.Repo.AccountByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = domain.RoleAdmin
	}
	return s.Repo.PromoteOperator(ctx, acc, role)
}
