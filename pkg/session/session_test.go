package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

type fakeAccount struct {
	password string
	user     *User
}

type fakeProvider struct {
	mu       sync.Mutex
	subs     map[int]func(*User)
	nextSub  int
	accounts map[string]fakeAccount
	signOuts int
	resetErr error
	netErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{subs: map[int]func(*User){}, accounts: map[string]fakeAccount{}}
}

func (f *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (*User, error) {
	if f.netErr != nil {
		return nil, f.netErr
	}
	a, ok := f.accounts[email]
	if !ok || a.password != password {
		return nil, &AuthError{Op: "sign_in", Kind: KindInvalidCredentials}
	}
	return a.user, nil
}

func (f *fakeProvider) SubscribeAuthChanges(fn func(*User)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.mu.Lock()
	f.signOuts++
	f.mu.Unlock()
	return nil
}

func (f *fakeProvider) SendReset(context.Context, string) error {
	return f.resetErr
}

func (f *fakeProvider) emit(u *User) {
	f.mu.Lock()
	subs := make([]func(*User), 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()
	for _, s := range subs {
		s(u)
	}
}

type fakeStore struct {
	mu       sync.Mutex
	ops      map[string]*domain.Operator
	err      error
	touchErr error
	touched  []string
	block    map[string]chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{ops: map[string]*domain.Operator{}, block: map[string]chan struct{}{}}
}

func (s *fakeStore) Operator(ctx context.Context, uid string) (*domain.Operator, error) {
	s.mu.Lock()
	wait := s.block[uid]
	s.mu.Unlock()
	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.ops[uid], nil
}

func (s *fakeStore) TouchLastLogin(_ context.Context, uid string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, uid)
	return s.touchErr
}

func TestPrivilegesResolve(t *testing.T) {
	t.Parallel()

	u := &User{UID: "u1", Email: "a@resto.test", DisplayName: "Ana"}

	tests := []struct {
		name  string
		op    *domain.Operator
		err   error
		user  *User
		state State
	}{
		{name: "no user", user: nil, state: StateUnauthenticated},
		{name: "no operator record", user: u, state: StateAuthenticated},
		{name: "unknown role", user: u, op: &domain.Operator{UID: "u1", Role: "viewer"}, state: StateAuthenticated},
		{name: "store error fails closed", user: u, err: errors.New("boom"), state: StateAuthenticated},
		{name: "admin", user: u, op: &domain.Operator{UID: "u1", Role: domain.RoleAdmin}, state: StatePrivileged},
		{name: "superadmin", user: u, op: &domain.Operator{UID: "u1", Role: domain.RoleSuperAdmin}, state: StatePrivileged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.err = tt.err
			if tt.op != nil {
				store.ops[tt.op.UID] = tt.op
			}
			p := &Privileges{Store: store}

			s := p.Resolve(context.Background(), tt.user)
			assert.Equal(t, tt.state, s.State)
			assert.Equal(t, tt.state == StatePrivileged, s.IsPrivileged)
		})
	}
}

func TestPrivilegesResolve_OperatorDisplayName(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.ops["u1"] = &domain.Operator{UID: "u1", Role: domain.RoleAdmin, DisplayName: "Head Chef"}

	s := (&Privileges{Store: store}).Resolve(context.Background(), &User{UID: "u1", DisplayName: "ana"})
	assert.Equal(t, "Head Chef", s.DisplayName)
	assert.Equal(t, domain.RoleAdmin, s.Role)
}

func TestGateSignIn(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	p.accounts["admin@resto.test"] = fakeAccount{password: "secret", user: &User{UID: "u1", Email: "admin@resto.test"}}
	p.accounts["guest@resto.test"] = fakeAccount{password: "secret", user: &User{UID: "u2", Email: "guest@resto.test"}}
	store := newFakeStore()
	store.ops["u1"] = &domain.Operator{UID: "u1", Role: domain.RoleAdmin}
	g := NewGate(p, store)
	ctx := context.Background()

	t.Run("privileged", func(t *testing.T) {
		s, err := g.SignIn(ctx, "admin@resto.test", "secret")
		require.NoError(t, err)
		assert.Equal(t, StatePrivileged, s.State)
		assert.True(t, s.IsPrivileged)
	})

	t.Run("not an operator", func(t *testing.T) {
		s, err := g.SignIn(ctx, "guest@resto.test", "secret")
		require.NoError(t, err)
		assert.Equal(t, StateAuthenticated, s.State)
		assert.Equal(t, DecisionRedirectUnauthorized, Decide(s))
	})

	t.Run("wrong password", func(t *testing.T) {
		s, err := g.SignIn(ctx, "admin@resto.test", "nope")
		require.Error(t, err)
		assert.True(t, IsKind(err, KindInvalidCredentials))
		assert.Equal(t, StateUnauthenticated, s.State)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := g.SignIn(ctx, "", "")
		assert.True(t, IsKind(err, KindInvalidInput))
	})
}

func TestGateSignIn_TouchFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	p.accounts["admin@resto.test"] = fakeAccount{password: "secret", user: &User{UID: "u1"}}
	store := newFakeStore()
	store.ops["u1"] = &domain.Operator{UID: "u1", Role: domain.RoleSuperAdmin}
	store.touchErr = errors.New("write failed")

	s, err := NewGate(p, store).SignIn(context.Background(), "admin@resto.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, StatePrivileged, s.State)
	assert.Equal(t, []string{"u1"}, store.touched)
}

func TestGateSignIn_NetworkError(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	p.netErr = errors.New("connection refused")

	_, err := NewGate(p, newFakeStore()).SignIn(context.Background(), "a@resto.test", "x")
	assert.True(t, IsKind(err, KindNetwork))
}

func TestGateSignOut_Idempotent(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	g := NewGate(p, newFakeStore())

	require.NoError(t, g.SignOut(context.Background()))
	require.NoError(t, g.SignOut(context.Background()))
	assert.Equal(t, 2, p.signOuts)
}

func TestGateRequestPasswordReset(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	g := NewGate(p, newFakeStore())
	ctx := context.Background()

	assert.True(t, IsKind(g.RequestPasswordReset(ctx, "not-an-email"), KindInvalidInput))
	require.NoError(t, g.RequestPasswordReset(ctx, "admin@resto.test"))

	p.resetErr = &AuthError{Op: "password_reset", Kind: KindUnregistered}
	assert.True(t, IsKind(g.RequestPasswordReset(ctx, "ghost@resto.test"), KindUnregistered))
}

func TestDecide(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DecisionWait, Decide(Session{State: StateUnknown}))
	assert.Equal(t, DecisionRedirectLogin, Decide(Unauthenticated()))
	assert.Equal(t, DecisionRedirectUnauthorized, Decide(Session{State: StateAuthenticated}))
	assert.Equal(t, DecisionAllow, Decide(Session{State: StatePrivileged, IsPrivileged: true}))
}

func TestStateText(t *testing.T) {
	t.Parallel()

	b, err := StatePrivileged.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "authenticated_privileged", string(b))

	var s State
	require.NoError(t, s.UnmarshalText([]byte("unauthenticated")))
	assert.Equal(t, StateUnauthenticated, s)
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
}

func TestHolder_StartsUnknownAndWaits(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	h := NewHolder(p, &Privileges{Store: newFakeStore()})
	defer h.Close()

	assert.Equal(t, StateUnknown, h.Current().State)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := h.CurrentSession(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHolder_FollowsAuthChanges(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	store := newFakeStore()
	store.ops["u1"] = &domain.Operator{UID: "u1", Role: domain.RoleAdmin}
	h := NewHolder(p, &Privileges{Store: store})
	defer h.Close()

	p.emit(&User{UID: "u1"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := h.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatePrivileged, s.State)

	p.emit(&User{UID: "u2"})
	require.Eventually(t, func() bool {
		return h.Current().State == StateAuthenticated
	}, time.Second, 5*time.Millisecond)

	p.emit(nil)
	require.Eventually(t, func() bool {
		return h.Current().State == StateUnauthenticated
	}, time.Second, 5*time.Millisecond)
}

func TestHolder_DiscardsStaleResolution(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	store := newFakeStore()
	store.ops["slow"] = &domain.Operator{UID: "slow", Role: domain.RoleAdmin}
	release := make(chan struct{})
	store.block["slow"] = release

	h := NewHolder(p, &Privileges{Store: store})
	defer h.Close()

	p.emit(&User{UID: "slow"})
	p.emit(nil)
	require.Eventually(t, func() bool {
		return h.Current().State == StateUnauthenticated
	}, time.Second, 5*time.Millisecond)

	close(release)
	assert.Never(t, func() bool {
		return h.Current().State == StatePrivileged
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestHolder_WatchersNeverSeeStaleSession(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	store := newFakeStore()
	store.ops["u1"] = &domain.Operator{UID: "u1", Role: domain.RoleAdmin}
	h := NewHolder(p, &Privileges{Store: store})
	defer h.Close()

	var (
		mu   sync.Mutex
		seen []State
		once sync.Once
	)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.Watch(func(s Session) {
		if s.State == StatePrivileged {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		mu.Lock()
		seen = append(seen, s.State)
		mu.Unlock()
	})
	seenStates := func() []State {
		mu.Lock()
		defer mu.Unlock()
		return append([]State(nil), seen...)
	}

	p.emit(&User{UID: "u1"})
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("watcher not called")
	}

	p.emit(nil)
	require.Eventually(t, func() bool {
		return h.Current().State == StateUnauthenticated
	}, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(seenStates()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return len(seenStates()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []State{StatePrivileged, StateUnauthenticated}, seenStates())
}

func TestHolder_WatchAndClose(t *testing.T) {
	t.Parallel()

	p := newFakeProvider()
	h := NewHolder(p, &Privileges{Store: newFakeStore()})

	got := make(chan Session, 4)
	stop := h.Watch(func(s Session) { got <- s })

	p.emit(nil)
	select {
	case s := <-got:
		assert.Equal(t, StateUnauthenticated, s.State)
	case <-time.After(time.Second):
		t.Fatal("watcher not called")
	}
	stop()

	h.Close()
	h.Close()
	p.emit(&User{UID: "late"})
	assert.Equal(t, StateUnauthenticated, h.Current().State)
}
