package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
	"happy-hearts-pos/pos-svc/internal/storage"
)

const OrdersKey = "orders"

type LedgerEventType string

const (
	OrderAppended      LedgerEventType = "appended"
	OrderStatusUpdated LedgerEventType = "status_updated"
	OrderCancelled     LedgerEventType = "cancelled"
)

// LedgerEvent is delivered to same-tab subscribers after a successful write.
type LedgerEvent struct {
	Type  LedgerEventType
	Order domain.Order
}

// Ledger is the order collection, stored oldest first as one JSON array.
// Every mutation reads the whole collection, changes it and writes it
// back. Concurrent writers from other tabs can overwrite each other.
type Ledger struct {
	origin Origin
	log    *slog.Logger
	Now    func() time.Time

	mu        sync.Mutex
	nextSub   int
	listeners map[int]func(LedgerEvent)
}

func NewLedger(origin Origin, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		origin:    origin,
		log:       log,
		Now:       systemNow,
		listeners: make(map[int]func(LedgerEvent)),
	}
}

func (l *Ledger) load(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if _, err := loadDocument(ctx, l.origin, OrdersKey, &orders); err != nil {
		return nil, fmt.Errorf("cannot load orders: %w", err)
	}
	for i := range orders {
		if orders[i].Status == "" {
			orders[i].Status = domain.StatusNew
		}
	}
	return orders, nil
}

func (l *Ledger) save(ctx context.Context, orders []domain.Order) error {
	if orders == nil {
		orders = []domain.Order{}
	}
	return saveDocument(ctx, l.origin, l.log, OrdersKey, orders)
}

func (l *Ledger) Append(ctx context.Context, order domain.Order) error {
	orders, err := l.load(ctx)
	if err != nil {
		return err
	}
	order = order.Clone()
	orders = append(orders, order)
	if err := l.save(ctx, orders); err != nil {
		return err
	}
	l.log.Info("order appended", "order_id", order.ID, "total", order.Total, "staff", order.StaffName)
	l.emit(LedgerEvent{Type: OrderAppended, Order: order})
	return nil
}

// UpdateStatus moves an order along new -> in-progress -> completed, or to
// cancelled from either open state.
func (l *Ledger) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return l.transition(ctx, id, status, OrderStatusUpdated)
}

// Cancel marks an open order cancelled. The record stays in the ledger.
func (l *Ledger) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	return l.transition(ctx, id, domain.StatusCancelled, OrderCancelled)
}

func (l *Ledger) transition(ctx context.Context, id string, status domain.OrderStatus, evType LedgerEventType) (*domain.Order, error) {
	orders, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfOrder(orders, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	current := orders[idx].Status
	if !current.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	now := l.Now()
	orders[idx].Status = status
	orders[idx].UpdatedAt = &now
	if err := l.save(ctx, orders); err != nil {
		return nil, err
	}

	updated := orders[idx].Clone()
	l.log.Info("order status changed", "order_id", id, "from", current, "to", status)
	l.emit(LedgerEvent{Type: evType, Order: updated})
	return &updated, nil
}

func (l *Ledger) Find(ctx context.Context, id string) (*domain.Order, error) {
	orders, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfOrder(orders, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return &orders[idx], nil
}

// All returns the collection in storage order, oldest first.
func (l *Ledger) All(ctx context.Context) ([]domain.Order, error) {
	orders, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (l *Ledger) Newest(ctx context.Context) ([]domain.Order, error) {
	orders, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	reversed := make([]domain.Order, len(orders))
	for i, o := range orders {
		reversed[len(orders)-1-i] = o
	}
	return reversed, nil
}

// Subscribe registers fn for this tab's own ledger writes. fn runs
// synchronously inside the writing call. The returned func unsubscribes.
func (l *Ledger) Subscribe(fn func(LedgerEvent)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

// WatchExternal calls fn whenever another tab rewrites the order collection.
func (l *Ledger) WatchExternal(ctx context.Context, fn func()) error {
	return l.origin.Watch(ctx, func(c storage.Change) {
		if c.Key == OrdersKey {
			fn()
		}
	})
}

func (l *Ledger) emit(ev LedgerEvent) {
	l.mu.Lock()
	listeners := make([]func(LedgerEvent), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func indexOfOrder(orders []domain.Order, id string) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}
