package domain

import "time"

// OrderEvent is the message pos-svc writes to the orders topic.
type OrderEvent struct {
	Type      string      `json:"type"`
	OrderID   string      `json:"order_id"`
	Status    string      `json:"status"`
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

// Label is how the item shows up in the popularity ranking.
func (i EventItem) Label() string {
	if i.Size == "" {
		return i.Name
	}
	return i.Name + " (" + i.Size + ")"
}

const (
	EventOrderPlaced        = "order_placed"
	EventOrderStatusChanged = "order_status_changed"

	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// DailySales is the running tally for one calendar day.
type DailySales struct {
	Day       string      `json:"day"`
	Revenue   float64     `json:"revenue"`
	Orders    int64       `json:"orders"`
	Completed int64       `json:"completed"`
	Cancelled int64       `json:"cancelled"`
	TopItems  []ItemTally `json:"top_items"`
}

type ItemTally struct {
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
}
