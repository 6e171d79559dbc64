// Package events fans domain changes out to the configured broker.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/resto_admin/internal/logging"
)

const (
	TopicMenu  = "menu_events"
	TopicOrder = "order_events"
	TopicAuth  = "auth_events"
)

// Topics lists every topic the server writes to.
var Topics = []string{TopicMenu, TopicOrder, TopicAuth}

const publishTimeout = 5 * time.Second

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Event struct {
	Type  string    `json:"type"`
	At    time.Time `json:"at"`
	Actor string    `json:"actor,omitempty"`
	Data  any       `json:"data,omitempty"`
}

func New(typ, actor string, data any) Event {
	return Event{Type: typ, At: time.Now().UTC(), Actor: actor, Data: data}
}

// Publish sends ev with a bounded wait and only logs failures. Callers never
// fail a request because the broker is down.
func Publish(ctx context.Context, p Publisher, topic, key string, ev Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Error("publish_event_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}

type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                            { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

type Recorded struct {
	Topic string
	Key   string
	Event any
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

// Types returns the Type of every recorded Event, in order.
func (r *Recorder) Types() []string {
	var out []string
	for _, rec := range r.Events() {
		if ev, ok := rec.Event.(Event); ok {
			out = append(out, ev.Type)
		}
	}
	return out
}

func (r *Recorder) Close() error { return nil }
