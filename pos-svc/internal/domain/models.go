package domain

import (
	"strconv"
	"time"
)

type Size struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type MenuItem struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Sizes       []Size  `json:"sizes,omitempty"`
}

// FindSize returns the variant with the given name.
func (m MenuItem) FindSize(name string) (Size, bool) {
	for _, s := range m.Sizes {
		if s.Name == name {
			return s, true
		}
	}
	return Size{}, false
}

// Clone returns a copy that shares no slices with m.
func (m MenuItem) Clone() MenuItem {
	out := m
	if m.Sizes != nil {
		out.Sizes = append([]Size(nil), m.Sizes...)
	}
	return out
}

type CartItem struct {
	MenuItem
	CartID       string `json:"cartId"`
	Quantity     int    `json:"quantity"`
	SelectedSize *Size  `json:"selectedSize,omitempty"`
}

// CartIDFor is the merge key of a cart line: "<id>" or "<id>-<size>".
func CartIDFor(itemID int, size *Size) string {
	if size == nil {
		return strconv.Itoa(itemID)
	}
	return strconv.Itoa(itemID) + "-" + size.Name
}

func (c CartItem) UnitPrice() float64 {
	if c.SelectedSize != nil {
		return c.SelectedSize.Price
	}
	return c.Price
}

func (c CartItem) LineTotal() float64 {
	return c.UnitPrice() * float64(c.Quantity)
}

func (c CartItem) Clone() CartItem {
	out := c
	out.MenuItem = c.MenuItem.Clone()
	if c.SelectedSize != nil {
		size := *c.SelectedSize
		out.SelectedSize = &size
	}
	return out
}

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusInProgress OrderStatus = "in-progress"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusNew:        {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether an order may move from s to next.
// Completed and cancelled are terminal.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Channel string

const (
	ChannelCustomer Channel = "customer"
	ChannelStaff    Channel = "staff"
	ChannelKiosk    Channel = "kiosk"
)

type Order struct {
	ID                  string      `json:"id"`
	Date                time.Time   `json:"date"`
	Items               []CartItem  `json:"items"`
	Subtotal            float64     `json:"subtotal"`
	DeliveryFee         float64     `json:"deliveryFee"`
	Total               float64     `json:"total"`
	CustomerName        string      `json:"customerName"`
	DeliveryTime        string      `json:"deliveryTime,omitempty"`
	StaffName           string      `json:"staffName,omitempty"`
	Status              OrderStatus `json:"status"`
	IsMessengerDelivery bool        `json:"isMessengerDelivery,omitempty"`
	MessengerName       string      `json:"messengerName,omitempty"`
	MessengerContact    string      `json:"messengerContact,omitempty"`
	DeliveryLocation    *Coordinate `json:"deliveryLocation,omitempty"`
	DegradedID          bool        `json:"degradedId,omitempty"`
	UpdatedAt           *time.Time  `json:"updatedAt,omitempty"`
}

func (o Order) Clone() Order {
	out := o
	out.Items = make([]CartItem, len(o.Items))
	for i, item := range o.Items {
		out.Items[i] = item.Clone()
	}
	if o.UpdatedAt != nil {
		updated := *o.UpdatedAt
		out.UpdatedAt = &updated
	}
	if o.DeliveryLocation != nil {
		loc := *o.DeliveryLocation
		out.DeliveryLocation = &loc
	}
	return out
}

// OrderType is the label used on slips and kitchen messages.
func (o Order) OrderType() string {
	switch {
	case o.IsMessengerDelivery:
		return "Messenger Delivery"
	case o.StaffName == KioskStaffName:
		return "Kiosk Order"
	default:
		return "Walk-in/Take-out"
	}
}

const (
	KioskStaffName       = "Kiosk"
	WalkInCustomerName   = "Walk-in"
	OnlineCustomerName   = "Online Customer"
	DeliveryTimeASAP     = "ASAP"
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "password"
)

type TimeLogType string

const (
	ClockedIn  TimeLogType = "in"
	ClockedOut TimeLogType = "out"
)

type TimeLog struct {
	StaffName string      `json:"staffName"`
	Timestamp time.Time   `json:"timestamp"`
	Type      TimeLogType `json:"type"`
}

// StaffAccount and AdminCredential hold plaintext passwords, as the
// storefront always has. Do not treat them as secure.
type StaffAccount struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

type AdminCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Session replaces the old boolean auth flags. It has no expiry and no
// signature; logging out just removes it.
type Session struct {
	Token    string    `json:"token"`
	Role     Role      `json:"role"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issuedAt"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type OrderEvent struct {
	Type      string      `json:"type"`
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Total     float64     `json:"total"`
	Items     []EventItem `json:"items,omitempty"`
	StaffName string      `json:"staff_name,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type EventItem struct {
	ItemID   int     `json:"item_id"`
	Name     string  `json:"name"`
	Size     string  `json:"size,omitempty"`
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
}

const (
	EventOrderPlaced        = "order_placed"
	EventOrderStatusChanged = "order_status_changed"
)

// NewOrderEvent flattens an order into the event published to the kitchen feed.
func NewOrderEvent(eventType string, o Order, at time.Time) OrderEvent {
	ev := OrderEvent{
		Type:      eventType,
		OrderID:   o.ID,
		Status:    o.Status,
		Total:     o.Total,
		StaffName: o.StaffName,
		Timestamp: at,
	}
	for _, item := range o.Items {
		size := ""
		if item.SelectedSize != nil {
			size = item.SelectedSize.Name
		}
		ev.Items = append(ev.Items, EventItem{
			ItemID:   item.ID,
			Name:     item.Name,
			Size:     size,
			Quantity: item.Quantity,
			Amount:   item.LineTotal(),
		})
	}
	return ev
}
