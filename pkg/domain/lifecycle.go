package domain

import (
	"fmt"
	"time"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusReady, StatusCancelled},
	StatusReady:      {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func CanTransition(from, to OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the targets reachable from s in one step.
func NextStatuses(s OrderStatus) []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Transition validates the move from o.Status to to and returns the updated
// snapshot. o itself is never modified. CompletedAt is stamped only on entry
// into completed and only if it was unset.
func Transition(o Order, to OrderStatus, now time.Time) (Order, error) {
	if !CanTransition(o.Status, to) {
		return o, &InvalidTransitionError{From: o.Status, To: to}
	}

	next := o
	next.Items = append([]OrderLineItem(nil), o.Items...)
	next.Status = to
	next.UpdatedAt = now

	if to == StatusCompleted && o.CompletedAt == nil {
		at := now
		next.CompletedAt = &at
	}

	return next, nil
}
