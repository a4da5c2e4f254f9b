package service

import (
	"context"
	"io"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
	"happy-hearts-pos/pos-svc/internal/storage"
)

// Origin is one tab's view of the shared key-value store.
type Origin interface {
	TabID() string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Watch(ctx context.Context, fn func(storage.Change)) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev domain.OrderEvent) error
}

// Alerter is told when the new-order bucket grows.
type Alerter interface {
	Alert(ctx context.Context, newOrders int)
}

type QRGenerator interface {
	Generate(content string) ([]byte, error)
}

type CatalogServiceInterface interface {
	Get(ctx context.Context) (domain.MenuData, error)
	Save(ctx context.Context, menu domain.MenuData) error
	Reset(ctx context.Context) error
	Find(ctx context.Context, id int) (domain.MenuItem, error)
}

type LedgerInterface interface {
	Append(ctx context.Context, order domain.Order) error
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Cancel(ctx context.Context, id string) (*domain.Order, error)
	Find(ctx context.Context, id string) (*domain.Order, error)
	All(ctx context.Context) ([]domain.Order, error)
	Newest(ctx context.Context) ([]domain.Order, error)
}

type CheckoutServiceInterface interface {
	PlaceOrder(ctx context.Context, cart *Cart, req CheckoutRequest) (*domain.Order, error)
	Quote(dest *domain.Coordinate) FeeQuote
}

type QueueServiceInterface interface {
	Refresh(ctx context.Context) (QueueBuckets, error)
	Snapshot() QueueBuckets
}

type IdentityServiceInterface interface {
	AdminLogin(ctx context.Context, username, password string) (*domain.Session, error)
	AdminLogout(ctx context.Context) error
	IsAdminAuthenticated(ctx context.Context) (bool, error)
	ChangeAdminPassword(ctx context.Context, current, next, confirm string) error
	Signup(ctx context.Context, username, password string) (*domain.Session, error)
	StaffLogin(ctx context.Context, username, password string) (*domain.Session, error)
	StaffLogout(ctx context.Context) error
	CurrentStaff(ctx context.Context) (string, bool, error)
	ListStaff(ctx context.Context) ([]domain.StaffAccount, error)
	DeleteStaff(ctx context.Context, username string) error
}

type AttendanceServiceInterface interface {
	ClockIn(ctx context.Context, staffName string) (domain.TimeLog, error)
	ClockOut(ctx context.Context, staffName string) (domain.TimeLog, error)
	IsClockedIn(ctx context.Context, staffName string) (bool, error)
	Logs(ctx context.Context) ([]domain.TimeLog, error)
	HourlyRate(ctx context.Context) (float64, error)
	SetHourlyRate(ctx context.Context, rate float64) error
	Report(ctx context.Context) (AttendanceReport, error)
}

type ReportServiceInterface interface {
	Sales(ctx context.Context) (SalesSummary, error)
	ExportSales(ctx context.Context, w io.Writer) error
	ExportTimeLogs(ctx context.Context, w io.Writer) error
}

type KioskServiceInterface interface {
	Cart() KioskCart
	Add(ctx context.Context, itemID, qty int, sizeName string) (KioskCart, error)
	SetQuantity(cartID string, n int) KioskCart
	Reset()
	Checkout(ctx context.Context, customerName string) (*domain.Order, error)
}

type MessagingServiceInterface interface {
	OrderMessage(ctx context.Context, id string) (OrderMessage, error)
	SlipQRCode(ctx context.Context, id string) ([]byte, error)
}

var (
	_ Origin                     = (*storage.Origin)(nil)
	_ EventPublisher             = (*storage.KafkaPublisher)(nil)
	_ CatalogServiceInterface    = (*Catalog)(nil)
	_ LedgerInterface            = (*Ledger)(nil)
	_ CheckoutServiceInterface   = (*Checkout)(nil)
	_ QueueServiceInterface      = (*QueueView)(nil)
	_ IdentityServiceInterface   = (*Identity)(nil)
	_ AttendanceServiceInterface = (*Attendance)(nil)
	_ ReportServiceInterface     = (*Reports)(nil)
	_ MessagingServiceInterface  = (*Messaging)(nil)
	_ KioskServiceInterface      = (*Kiosk)(nil)
	_ QRGenerator                = DefaultQRGenerator{}
)

func systemNow() time.Time { return time.Now() }
