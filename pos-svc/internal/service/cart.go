package service

import (
	"sync"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
)

// Cart is the in-memory order being built at one surface. It is never
// persisted; only the order placed from it is.
type Cart struct {
	mu           sync.Mutex
	channel      domain.Channel
	lines        []domain.CartItem
	lastActivity time.Time
}

func NewCart(channel domain.Channel) *Cart {
	return &Cart{channel: channel}
}

func (c *Cart) Channel() domain.Channel {
	return c.channel
}

// Add merges qty of item into the line with the same cart id, or appends
// a new line. Items that have sizes need one of them; items without sizes
// take none.
func (c *Cart) Add(item domain.MenuItem, qty int, size *domain.Size) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	selected, err := resolveSize(item, size)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cartID := domain.CartIDFor(item.ID, selected)
	for i := range c.lines {
		if c.lines[i].CartID == cartID {
			c.lines[i].Quantity += qty
			return nil
		}
	}
	c.lines = append(c.lines, domain.CartItem{
		MenuItem:     item.Clone(),
		CartID:       cartID,
		Quantity:     qty,
		SelectedSize: selected,
	})
	return nil
}

func resolveSize(item domain.MenuItem, size *domain.Size) (*domain.Size, error) {
	if len(item.Sizes) == 0 {
		if size != nil {
			return nil, ErrUnknownSize
		}
		return nil, nil
	}
	if size == nil {
		return nil, ErrSizeRequired
	}
	found, ok := item.FindSize(size.Name)
	if !ok {
		return nil, ErrUnknownSize
	}
	return &found, nil
}

// SetQuantity replaces a line's quantity. Below 1 removes the line.
func (c *Cart) SetQuantity(cartID string, n int) {
	if n < 1 {
		c.Remove(cartID)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].CartID == cartID {
			c.lines[i].Quantity = n
			return
		}
	}
}

func (c *Cart) Remove(cartID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].CartID == cartID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Subtotal() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0.0
	for _, line := range c.lines {
		total += line.LineTotal()
	}
	return total
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Take removes the quantities in taken, usually an earlier Items snapshot.
// Lines added or topped up since the snapshot keep the difference.
func (c *Cart) Take(taken []domain.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range taken {
		for i := range c.lines {
			if c.lines[i].CartID != t.CartID {
				continue
			}
			c.lines[i].Quantity -= t.Quantity
			if c.lines[i].Quantity < 1 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
			}
			break
		}
	}
}

// Items returns deep copies of the lines.
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartItem, len(c.lines))
	for i, line := range c.lines {
		out[i] = line.Clone()
	}
	return out
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

// Len is the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = now
}

// ExpireIdle clears a non-empty cart that has seen no activity for timeout
// and reports whether it did.
func (c *Cart) ExpireIdle(now time.Time, timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 || c.lastActivity.IsZero() {
		return false
	}
	if now.Sub(c.lastActivity) < timeout {
		return false
	}
	c.lines = nil
	c.lastActivity = time.Time{}
	return true
}
