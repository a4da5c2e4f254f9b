package tests

import (
	"context"
	"io"
	"log/slog"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
	"happy-hearts-pos/pos-svc/internal/service"
	"happy-hearts-pos/pos-svc/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTab(backend *storage.MemoryBackend, id string) *storage.Origin {
	return storage.NewOrigin(id, backend, backend, quietLogger())
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// stack is the set of services one surface runs against a shared backend.
type stack struct {
	origin     *storage.Origin
	catalog    *service.Catalog
	allocator  *service.Allocator
	ledger     *service.Ledger
	checkout   *service.Checkout
	identity   *service.Identity
	attendance *service.Attendance
}

func newStack(backend *storage.MemoryBackend, tabID string, publisher service.EventPublisher) *stack {
	origin := newTab(backend, tabID)
	allocator := service.NewAllocator(origin, quietLogger())
	ledger := service.NewLedger(origin, quietLogger())
	return &stack{
		origin:     origin,
		catalog:    service.NewCatalog(origin, quietLogger()),
		allocator:  allocator,
		ledger:     ledger,
		checkout:   service.NewCheckout(allocator, ledger, service.DefaultFeeSchedule(), publisher, quietLogger()),
		identity:   service.NewIdentity(origin, quietLogger()),
		attendance: service.NewAttendance(origin, service.DefaultHourlyRate, quietLogger()),
	}
}

var (
	plainItem = domain.MenuItem{ID: 100, Name: "Item A", Category: "Snacks", Price: 100}
	sizedItem = domain.MenuItem{
		ID: 200, Name: "Item B", Category: "Milk Tea", Price: 120,
		Sizes: []domain.Size{{Name: "Medium", Price: 120}, {Name: "Large", Price: 150}},
	}
	largeSize = &domain.Size{Name: "Large"}
)

func staffRequest(staff string) service.CheckoutRequest {
	return service.CheckoutRequest{StaffName: staff}
}

func orderWithStatus(id string, status domain.OrderStatus, date time.Time) domain.Order {
	return domain.Order{
		ID:           id,
		Date:         date,
		Items:        []domain.CartItem{{MenuItem: plainItem, CartID: "100", Quantity: 1}},
		Subtotal:     100,
		Total:        100,
		CustomerName: domain.WalkInCustomerName,
		StaffName:    "Ana",
		Status:       status,
	}
}

// keyFailingOrigin fails every access to one key and passes the rest through.
type keyFailingOrigin struct {
	*storage.Origin
	key string
}

func (o keyFailingOrigin) Get(ctx context.Context, key string) (string, bool, error) {
	if key == o.key {
		return "", false, storage.ErrUnavailable
	}
	return o.Origin.Get(ctx, key)
}

func (o keyFailingOrigin) Set(ctx context.Context, key, value string) error {
	if key == o.key {
		return storage.ErrUnavailable
	}
	return o.Origin.Set(ctx, key, value)
}
