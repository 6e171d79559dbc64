package session

import (
	"context"
	"sync"
)

// Holder tracks the current Session for a long-lived client. It starts in
// StateUnknown and leaves it once the provider delivers its first auth
// callback and that user has been resolved.
//
// Every auth change bumps a generation counter. A privilege resolution only
// applies if its generation is still current, so a slow lookup for a user
// who has since signed out is dropped.
type Holder struct {
	privileges *Privileges

	mu       sync.Mutex
	current  Session
	gen      uint64
	watchers map[int]func(Session)
	nextID   int

	// notifyMu orders watcher deliveries.
	notifyMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once

	events      chan *User
	done        chan struct{}
	closeOnce   sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

func NewHolder(p Provider, privileges *Privileges) *Holder {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Holder{
		privileges: privileges,
		current:    Session{State: StateUnknown},
		watchers:   map[int]func(Session){},
		ready:      make(chan struct{}),
		events:     make(chan *User, 16),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	h.wg.Add(1)
	go h.loop()
	h.unsubscribe = p.SubscribeAuthChanges(h.dispatch)
	return h
}

func (h *Holder) dispatch(u *User) {
	select {
	case h.events <- u:
	case <-h.done:
	}
}

func (h *Holder) loop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case u := <-h.events:
			h.handle(u)
		}
	}
}

func (h *Holder) handle(u *User) {
	h.mu.Lock()
	h.gen++
	gen := h.gen
	unknown := h.current.State == StateUnknown
	h.mu.Unlock()

	if u == nil || u.UID == "" {
		h.apply(gen, Unauthenticated())
		return
	}

	// Until the lookup finishes the user is treated as non-privileged. The
	// very first resolution keeps StateUnknown so guards keep waiting.
	if !unknown {
		h.apply(gen, Session{State: StateAuthenticated, User: u, DisplayName: u.DisplayName})
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		s := h.privileges.Resolve(h.ctx, u)
		if h.ctx.Err() != nil {
			return
		}
		h.apply(gen, s)
	}()
}

// apply stores s if gen is still current, then notifies watchers.
// Deliveries are serialized and each one re-checks the generation, so a
// watcher never sees a stale session after a newer one.
func (h *Holder) apply(gen uint64, s Session) {
	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return
	}
	h.current = s
	h.mu.Unlock()

	if s.State != StateUnknown {
		h.readyOnce.Do(func() { close(h.ready) })
	}

	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()
	for _, w := range h.snapshotWatchers(gen) {
		if !h.isCurrent(gen) {
			return
		}
		w(s)
	}
}

func (h *Holder) snapshotWatchers(gen uint64) []func(Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen {
		return nil
	}
	ws := make([]func(Session), 0, len(h.watchers))
	for _, w := range h.watchers {
		ws = append(ws, w)
	}
	return ws
}

func (h *Holder) isCurrent(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return gen == h.gen
}

// Current returns the latest session without waiting.
func (h *Holder) Current() Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// CurrentSession waits until the holder has left StateUnknown.
func (h *Holder) CurrentSession(ctx context.Context) (Session, error) {
	select {
	case <-h.ready:
		return h.Current(), nil
	case <-ctx.Done():
		return Session{State: StateUnknown}, ctx.Err()
	}
}

// Watch calls fn after every applied change. Calls are serialized and fn
// must not block for long. The returned func removes it.
func (h *Holder) Watch(fn func(Session)) (cancel func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.watchers[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.watchers, id)
		h.mu.Unlock()
	}
}

func (h *Holder) Close() {
	h.closeOnce.Do(func() {
		if h.unsubscribe != nil {
			h.unsubscribe()
		}
		h.cancel()
		close(h.done)
	})
	h.wg.Wait()
}
