package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/resto_admin/internal/tokens"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
	"github.com/Skotchmaster/resto_admin/pkg/session"
)

type fakeStore struct {
	ops map[string]*domain.Operator
	err error
}

func (f *fakeStore) Operator(_ context.Context, uid string) (*domain.Operator, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ops[uid], nil
}

func (f *fakeStore) TouchLastLogin(context.Context, string, time.Time) error { return nil }

var secret = []byte("access-secret")

func newMiddleware(store *fakeStore) *Middleware {
	return &Middleware{AccessSecret: secret, Privileges: &session.Privileges{Store: store}}
}

func signed(t *testing.T, uid string) string {
	t.Helper()
	s := &tokens.Signer{AccessSecret: secret, RefreshSecret: []byte("r")}
	tok, err := s.Access(uid, uid+"@resto.id", "", time.Now().Add(time.Minute))
	require.NoError(t, err)
	return tok
}

func ok(c echo.Context) error { return c.String(http.StatusOK, UserID(c)) }

func run(t *testing.T, h echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "want echo.HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth(t *testing.T) {
	m := newMiddleware(&fakeStore{})

	t.Run("missing", func(t *testing.T) {
		_, err := run(t, m.RequireAuth(ok), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, "u1"))
		rec, err := run(t, m.RequireAuth(ok), req)
		require.NoError(t, err)
		assert.Equal(t, "u1", rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: signed(t, "u2")})
		rec, err := run(t, m.RequireAuth(ok), req)
		require.NoError(t, err)
		assert.Equal(t, "u2", rec.Body.String())
	})

	t.Run("bad cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: "garbage"})
		rec, err := run(t, m.RequireAuth(ok), req)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), tokens.AccessCookie+"=;")
	})
}

func TestRequireOperator(t *testing.T) {
	store := &fakeStore{ops: map[string]*domain.Operator{
		"admin": {UID: "admin", Role: domain.RoleAdmin},
		"root":  {UID: "root", Role: domain.RoleSuperAdmin},
	}}
	m := newMiddleware(store)
	h := m.RequireAuth(m.RequireOperator(ok))
	super := m.RequireAuth(m.RequireRole(domain.RoleSuperAdmin)(ok))

	tests := []struct {
		name    string
		uid     string
		handler echo.HandlerFunc
		want    int
	}{
		{"operator", "admin", h, http.StatusOK},
		{"no operator record", "guest", h, http.StatusForbidden},
		{"superadmin route as admin", "admin", super, http.StatusForbidden},
		{"superadmin route as superadmin", "root", super, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, tt.uid))
			rec, err := run(t, tt.handler, req)
			if tt.want == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			assert.Equal(t, tt.want, statusOf(t, err))
		})
	}
}

func TestRequireOperator_StoreErrorFailsClosed(t *testing.T) {
	m := newMiddleware(&fakeStore{err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, "admin"))

	_, err := run(t, m.RequireAuth(m.RequireOperator(ok)), req)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}
