package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
)

// CheckoutRequest carries the fields a surface collects at checkout.
// Which of them apply depends on the cart's channel.
type CheckoutRequest struct {
	CustomerName        string             `json:"customerName"`
	StaffName           string             `json:"staffName"`
	Scheduled           bool               `json:"scheduled"`
	DeliveryTime        string             `json:"deliveryTime"`
	IsMessengerDelivery bool               `json:"isMessengerDelivery"`
	MessengerName       string             `json:"messengerName"`
	MessengerContact    string             `json:"messengerContact"`
	DeliveryFee         float64            `json:"deliveryFee"`
	Location            *domain.Coordinate `json:"location"`
}

// Checkout turns a cart into a stored order.
type Checkout struct {
	allocator *Allocator
	ledger    *Ledger
	fees      FeeSchedule
	publisher EventPublisher
	log       *slog.Logger
	Now       func() time.Time
}

func NewCheckout(allocator *Allocator, ledger *Ledger, fees FeeSchedule, publisher EventPublisher, log *slog.Logger) *Checkout {
	if log == nil {
		log = slog.Default()
	}
	return &Checkout{
		allocator: allocator,
		ledger:    ledger,
		fees:      fees,
		publisher: publisher,
		log:       log,
		Now:       systemNow,
	}
}

func (c *Checkout) Quote(dest *domain.Coordinate) FeeQuote {
	return c.fees.Quote(dest)
}

// PlaceOrder validates the request, snapshots the cart into a new order and
// appends it to the ledger. Nothing is written when validation fails. The
// snapshotted lines leave the cart only after the ledger write succeeds.
func (c *Checkout) PlaceOrder(ctx context.Context, cart *Cart, req CheckoutRequest) (*domain.Order, error) {
	items := cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order, err := c.prepare(cart.Channel(), req)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		order.Subtotal += item.LineTotal()
	}
	order.Items = items
	order.Total = order.Subtotal + order.DeliveryFee
	order.Status = domain.StatusNew
	order.Date = c.Now()

	id, degraded := c.allocator.Next(ctx)
	order.ID = id
	order.DegradedID = degraded

	if err := c.ledger.Append(ctx, order); err != nil {
		return nil, err
	}
	cart.Take(items)

	c.publish(ctx, order)
	return &order, nil
}

func (c *Checkout) prepare(channel domain.Channel, req CheckoutRequest) (domain.Order, error) {
	customer := strings.TrimSpace(req.CustomerName)

	switch channel {
	case domain.ChannelKiosk:
		if customer == "" {
			return domain.Order{}, ErrCustomerNameRequired
		}
		return domain.Order{
			CustomerName: customer,
			StaffName:    domain.KioskStaffName,
			DeliveryTime: domain.DeliveryTimeASAP,
		}, nil

	case domain.ChannelStaff:
		staff := strings.TrimSpace(req.StaffName)
		if staff == "" {
			return domain.Order{}, ErrStaffRequired
		}
		deliveryTime := domain.DeliveryTimeASAP
		if req.Scheduled {
			deliveryTime = strings.TrimSpace(req.DeliveryTime)
			if deliveryTime == "" {
				return domain.Order{}, ErrDeliveryTimeRequired
			}
		}
		if customer == "" {
			customer = domain.WalkInCustomerName
		}
		order := domain.Order{
			CustomerName: customer,
			StaffName:    staff,
			DeliveryTime: deliveryTime,
		}
		if req.IsMessengerDelivery {
			name := strings.TrimSpace(req.MessengerName)
			contact := strings.TrimSpace(req.MessengerContact)
			if name == "" || contact == "" {
				return domain.Order{}, ErrMessengerDetailsRequired
			}
			if req.DeliveryFee < 0 {
				return domain.Order{}, ErrInvalidDeliveryFee
			}
			order.IsMessengerDelivery = true
			order.MessengerName = name
			order.MessengerContact = contact
			order.DeliveryFee = req.DeliveryFee
		}
		return order, nil

	case domain.ChannelCustomer:
		quote := c.fees.Quote(req.Location)
		if !quote.Known {
			return domain.Order{}, ErrLocationRequired
		}
		if customer == "" {
			customer = domain.OnlineCustomerName
		}
		loc := *req.Location
		return domain.Order{
			CustomerName:     customer,
			DeliveryTime:     domain.DeliveryTimeASAP,
			DeliveryFee:      quote.Fee,
			DeliveryLocation: &loc,
		}, nil
	}
	return domain.Order{}, ErrUnknownChannel
}

func (c *Checkout) publish(ctx context.Context, order domain.Order) {
	if c.publisher == nil {
		return
	}
	ev := domain.NewOrderEvent(domain.EventOrderPlaced, order, order.Date)
	if err := c.publisher.PublishOrderEvent(ctx, ev); err != nil {
		c.log.Warn("order event not published", "order_id", order.ID, "err", err)
	}
}
