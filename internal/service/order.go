package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/resto_admin/internal/events"
	"github.com/Skotchmaster/resto_admin/internal/logging"
	"github.com/Skotchmaster/resto_admin/internal/notify"
	"github.com/Skotchmaster/resto_admin/internal/repo"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

const notifyTimeout = 5 * time.Second

type OrderService struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Notifier notify.Notifier
	Now      func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateOrder copies name and price of every referenced menu item into the
// order and totals it. The order starts pending.
func (s *OrderService) CreateOrder(ctx context.Context, actor string, req transport.CreateOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	ids := make([]string, 0, len(req.Items))
	for i := range req.Items {
		if req.Items[i].MenuItemID == "" {
			return nil, fmt.Errorf("%w: menu_item_id required", ErrValidation)
		}
		if req.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		ids = append(ids, req.Items[i].MenuItemID)
	}

	menu, err := s.Repo.MenuItemsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderLineItem, 0, len(req.Items))
	for _, it := range req.Items {
		m, ok := menu[it.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown menu item %s", ErrValidation, it.MenuItemID)
		}
		if !m.Available {
			return nil, fmt.Errorf("%w: %s is not available", ErrValidation, m.Name)
		}
		items = append(items, domain.OrderLineItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Price:      m.Price,
			Quantity:   it.Quantity,
			Notes:      strings.TrimSpace(it.Notes),
		})
	}

	total, err := domain.CheckedTotal(items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = actor
	}
	o, err := s.Repo.CreateOrder(ctx, domain.Order{
		UserID:          userID,
		Items:           items,
		TotalPrice:      total,
		Status:          domain.StatusPending,
		PaymentMethod:   req.PaymentMethod,
		DeliveryAddress: req.DeliveryAddress,
		ContactPhone:    req.ContactPhone,
	})
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicOrder, o.ID, events.New("order_created", actor, o))
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f transport.OrderFilter, offset, limit int) (int64, []domain.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	return s.Repo.ListOrders(ctx, f, offset, limit)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order "+id)
	}
	return o, nil
}

// PatchOrder changes delivery details only. Status has its own operation.
func (s *OrderService) PatchOrder(ctx context.Context, actor string, req transport.PatchOrderRequest, id string) (*domain.Order, error) {
	o, err := s.Repo.PatchOrder(ctx, req, id)
	if err != nil {
		return nil, notFound(err, "order "+id)
	}
	events.Publish(ctx, s.Events, events.TopicOrder, o.ID, events.New("order_updated", actor, o))
	return o, nil
}

// Transition moves the order along the lifecycle. A move the lifecycle does
// not allow returns *domain.InvalidTransitionError and writes nothing.
func (s *OrderService) Transition(ctx context.Context, actor, id, status string) (*domain.Order, error) {
	to, err := domain.ParseStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	cur, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next, err := domain.Transition(*cur, to, now)
	if err != nil {
		return nil, err
	}

	change, err := s.Repo.SaveTransition(ctx, next, domain.StatusChange{
		OrderID:   next.ID,
		From:      cur.Status,
		To:        next.Status,
		ChangedBy: actor,
		ChangedAt: now,
	})
	if err != nil {
		return nil, notFound(err, "order "+id)
	}

	l := logging.FromContext(ctx).With("svc", "order.transition", "order_id", next.ID)
	l.Info("order_status_changed", "from", string(change.From), "to", string(change.To), "by", actor)

	events.Publish(ctx, s.Events, events.TopicOrder, next.ID, events.New("order_status_changed", actor, map[string]any{
		"order_id":    next.ID,
		"from":        change.From,
		"to":          change.To,
		"total_price": next.TotalPrice,
	}))
	if s.Notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.Notifier.OrderStatusChanged(nctx, next, *change); err != nil {
			l.Warn("notify_failed", "error", err)
		}
	}
	return &next, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, actor, id string) error {
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return notFound(err, "order "+id)
	}
	events.Publish(ctx, s.Events, events.TopicOrder, id, events.New("order_deleted", actor, map[string]string{"id": id}))
	return nil
}

// History lists the applied transitions of an order, oldest first.
func (s *OrderService) History(ctx context.Context, id string) ([]domain.StatusChange, error) {
	if _, err := s.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	return s.Repo.StatusHistory(ctx, id)
}

// IsInvalidTransition reports whether err is a rejected lifecycle move.
func IsInvalidTransition(err error) bool {
	var ite *domain.InvalidTransitionError
	return errors.As(err, &ite)
}
