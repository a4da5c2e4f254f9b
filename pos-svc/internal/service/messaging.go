package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"happy-hearts-pos/pos-svc/internal/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const messengerBaseURL = "https://m.me/"

// FormatPeso renders an amount as ₱1,234.50. Thousands are grouped on
// purpose so large totals read the same on slips and in chat.
func FormatPeso(amount float64) string {
	return message.NewPrinter(language.English).Sprintf("₱%.2f", amount)
}

// SlipURL is the shareable link to an order's printable slip.
func SlipURL(baseURL, orderID string) string {
	return strings.TrimSuffix(baseURL, "index.html") + "#/order/" + orderID
}

// MessengerLink builds a chat deep link with text prefilled.
func MessengerLink(pageID, text string) string {
	return messengerBaseURL + pageID + "?text=" + encodeURIComponent(text)
}

// uriComponentUnescapes restores the characters that QueryEscape encodes
// but a URI component leaves alone.
var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}

// ComposeOrderMessage renders the kitchen notification for an order.
func ComposeOrderMessage(order domain.Order, slipURL string) string {
	var b strings.Builder

	deliveryTime := order.DeliveryTime
	if deliveryTime == "" {
		deliveryTime = domain.DeliveryTimeASAP
	}
	staff := order.StaffName
	if staff == "" {
		staff = "Online"
	}

	fmt.Fprintf(&b, "🔔 *NEW ORDER - %s* 🔔\n\n", order.OrderType())
	fmt.Fprintf(&b, "*Order #:* %s\n", order.ID)
	fmt.Fprintf(&b, "*For:* %s\n", order.CustomerName)
	fmt.Fprintf(&b, "*Time:* %s\n", deliveryTime)
	fmt.Fprintf(&b, "*Staff:* %s\n\n", staff)

	b.WriteString("*Items:*\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %dx %s", item.Quantity, item.Name)
		if item.SelectedSize != nil {
			fmt.Fprintf(&b, " (%s)", item.SelectedSize.Name)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n-------------------------\n")
	fmt.Fprintf(&b, "*Subtotal:* %s\n", FormatPeso(order.Subtotal))
	fmt.Fprintf(&b, "*Delivery Fee:* %s\n", FormatPeso(order.DeliveryFee))
	fmt.Fprintf(&b, "*TOTAL:* *%s*\n", FormatPeso(order.Total))
	b.WriteString("-------------------------\n")

	if order.IsMessengerDelivery && order.MessengerName != "" {
		b.WriteString("\n*Delivery Details:*\n")
		fmt.Fprintf(&b, "- *Service:* %s\n", order.MessengerName)
		fmt.Fprintf(&b, "- *Contact:* %s\n", order.MessengerContact)
		b.WriteString("-------------------------\n")
	}

	if loc := order.DeliveryLocation; loc != nil {
		b.WriteString("\n*Delivery Location:*\n")
		fmt.Fprintf(&b, "https://www.google.com/maps?q=%v,%v\n", loc.Latitude, loc.Longitude)
	}

	b.WriteString("\n*Link to full slip:*\n")
	b.WriteString(slipURL)

	return strings.TrimSpace(b.String())
}

type OrderMessage struct {
	OrderID       string `json:"orderId"`
	Text          string `json:"text"`
	SlipURL       string `json:"slipUrl"`
	MessengerLink string `json:"messengerLink"`
}

// Messaging renders outbound notifications for stored orders. Sending is
// left to whoever opens the link; there is no delivery confirmation.
type Messaging struct {
	ledger  *Ledger
	qr      QRGenerator
	pageID  string
	baseURL string
}

func NewMessaging(ledger *Ledger, qr QRGenerator, pageID, baseURL string) *Messaging {
	return &Messaging{ledger: ledger, qr: qr, pageID: pageID, baseURL: baseURL}
}

func (m *Messaging) OrderMessage(ctx context.Context, id string) (OrderMessage, error) {
	order, err := m.ledger.Find(ctx, id)
	if err != nil {
		return OrderMessage{}, err
	}
	slip := SlipURL(m.baseURL, order.ID)
	text := ComposeOrderMessage(*order, slip)
	return OrderMessage{
		OrderID:       order.ID,
		Text:          text,
		SlipURL:       slip,
		MessengerLink: MessengerLink(m.pageID, text),
	}, nil
}

// SlipQRCode encodes the slip link of an existing order as a PNG.
func (m *Messaging) SlipQRCode(ctx context.Context, id string) ([]byte, error) {
	order, err := m.ledger.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.qr.Generate(SlipURL(m.baseURL, order.ID))
}
