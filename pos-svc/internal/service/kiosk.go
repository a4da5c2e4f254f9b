package service

import (
	"context"
	"log/slog"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
)

// KioskCart is what the kiosk screen shows for the cart in progress.
type KioskCart struct {
	Items    []domain.CartItem `json:"items"`
	Subtotal float64           `json:"subtotal"`
	Count    int               `json:"count"`
}

// Kiosk is the self-service terminal. It owns one kiosk cart which is
// cleared after IdleTimeout without a customer touching it.
type Kiosk struct {
	cart        *Cart
	catalog     CatalogServiceInterface
	checkout    CheckoutServiceInterface
	log         *slog.Logger
	IdleTimeout time.Duration
	Now         func() time.Time
}

func NewKiosk(catalog CatalogServiceInterface, checkout CheckoutServiceInterface, idle time.Duration, log *slog.Logger) *Kiosk {
	if log == nil {
		log = slog.Default()
	}
	return &Kiosk{
		cart:        NewCart(domain.ChannelKiosk),
		catalog:     catalog,
		checkout:    checkout,
		log:         log,
		IdleTimeout: idle,
		Now:         systemNow,
	}
}

func (k *Kiosk) Cart() KioskCart {
	return KioskCart{
		Items:    k.cart.Items(),
		Subtotal: k.cart.Subtotal(),
		Count:    k.cart.Count(),
	}
}

func (k *Kiosk) Add(ctx context.Context, itemID, qty int, sizeName string) (KioskCart, error) {
	item, err := k.catalog.Find(ctx, itemID)
	if err != nil {
		return KioskCart{}, err
	}
	var size *domain.Size
	if sizeName != "" {
		size = &domain.Size{Name: sizeName}
	}
	if err := k.cart.Add(item, qty, size); err != nil {
		return KioskCart{}, err
	}
	k.cart.Touch(k.Now())
	return k.Cart(), nil
}

func (k *Kiosk) SetQuantity(cartID string, n int) KioskCart {
	k.cart.SetQuantity(cartID, n)
	k.cart.Touch(k.Now())
	return k.Cart()
}

func (k *Kiosk) Reset() {
	k.cart.Clear()
}

// Checkout places the kiosk cart as an order. The cart is left untouched
// when placement fails.
func (k *Kiosk) Checkout(ctx context.Context, customerName string) (*domain.Order, error) {
	k.cart.Touch(k.Now())
	return k.checkout.PlaceOrder(ctx, k.cart, CheckoutRequest{CustomerName: customerName})
}

// Sweep clears the cart when it has been idle for IdleTimeout.
func (k *Kiosk) Sweep() bool {
	if k.IdleTimeout <= 0 {
		return false
	}
	if k.cart.ExpireIdle(k.Now(), k.IdleTimeout) {
		k.log.Info("kiosk cart reset after inactivity", "timeout", k.IdleTimeout)
		return true
	}
	return false
}

// Run sweeps every interval until ctx is done.
func (k *Kiosk) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Sweep()
		}
	}
}
