package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(status OrderStatus) Order {
	created := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	return Order{
		ID:     "order-1",
		UserID: "user-1",
		Items: []OrderLineItem{
			{ID: "li-1", MenuItemID: "m-1", Name: "Rendang", Price: 25000, Quantity: 2},
		},
		TotalPrice: 50000,
		Status:     status,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestCanTransition_AllPairs(t *testing.T) {
	t.Parallel()

	allowed := map[[2]OrderStatus]bool{
		{StatusPending, StatusProcessing}:   true,
		{StatusPending, StatusCancelled}:    true,
		{StatusProcessing, StatusReady}:     true,
		{StatusProcessing, StatusCancelled}: true,
		{StatusReady, StatusCompleted}:      true,
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := allowed[[2]OrderStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransition_RejectedLeavesOrderUnmodified(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)
	for _, from := range Statuses {
		for _, to := range Statuses {
			if CanTransition(from, to) {
				continue
			}
			o := testOrder(from)
			before := testOrder(from)

			_, err := Transition(o, to, now)
			require.Error(t, err)

			var ite *InvalidTransitionError
			require.True(t, errors.As(err, &ite), "%s -> %s", from, to)
			assert.Equal(t, from, ite.From)
			assert.Equal(t, to, ite.To)
			assert.Equal(t, before, o)
		}
	}
}

func TestTransition_PendingToProcessing(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)
	o := testOrder(StatusPending)

	next, err := Transition(o, StatusProcessing, now)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, next.Status)
	assert.Equal(t, now, next.UpdatedAt)
	assert.Nil(t, next.CompletedAt)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, o.TotalPrice, next.TotalPrice)
}

func TestTransition_PendingToReadyFails(t *testing.T) {
	t.Parallel()

	_, err := Transition(testOrder(StatusPending), StatusReady, time.Now())
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
}

func TestTransition_CompletedAtStampedOnce(t *testing.T) {
	t.Parallel()

	first := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	next, err := Transition(testOrder(StatusReady), StatusCompleted, first)
	require.NoError(t, err)
	require.NotNil(t, next.CompletedAt)
	assert.Equal(t, first, *next.CompletedAt)

	// a ready order that already carries completedAt keeps it
	earlier := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	o := testOrder(StatusReady)
	o.CompletedAt = &earlier
	again, err := Transition(o, StatusCompleted, first)
	require.NoError(t, err)
	assert.Equal(t, earlier, *again.CompletedAt)

	_, err = Transition(next, StatusCompleted, first.Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, first, *next.CompletedAt)
}

func TestTransition_TerminalStatesHaveNoExit(t *testing.T) {
	t.Parallel()

	for _, from := range []OrderStatus{StatusCompleted, StatusCancelled} {
		assert.True(t, from.Terminal())
		assert.Empty(t, NextStatuses(from))
		for _, to := range Statuses {
			_, err := Transition(testOrder(from), to, time.Now())
			assert.Error(t, err, "%s -> %s", from, to)
		}
	}
}

func TestTransition_DoesNotShareItems(t *testing.T) {
	t.Parallel()

	o := testOrder(StatusPending)
	next, err := Transition(o, StatusProcessing, time.Now())
	require.NoError(t, err)

	next.Items[0].Name = "changed"
	assert.Equal(t, "Rendang", o.Items[0].Name)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	s, err := ParseStatus("ready")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, s)

	_, err = ParseStatus("READY")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestTotal(t *testing.T) {
	t.Parallel()

	items := []OrderLineItem{
		{Price: 25000, Quantity: 2},
		{Price: 8000, Quantity: 3},
	}
	assert.EqualValues(t, 74000, Total(items))
	assert.EqualValues(t, 0, Total(nil))

	got, err := CheckedTotal(items)
	require.NoError(t, err)
	assert.EqualValues(t, 74000, got)
}

func TestCheckedTotal_RejectsOverflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []OrderLineItem
	}{
		{"line overflows", []OrderLineItem{{Price: math.MaxInt64/2 + 1, Quantity: 2}}},
		{"sum overflows", []OrderLineItem{{Price: math.MaxInt64, Quantity: 1}, {Price: 1, Quantity: 1}}},
		{"negative price", []OrderLineItem{{Price: -1, Quantity: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckedTotal(tt.items)
			assert.ErrorIs(t, err, ErrTotalOverflow)
		})
	}

	got, err := CheckedTotal([]OrderLineItem{{Price: math.MaxInt64, Quantity: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), got)
}
