package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
)

type QueueBuckets struct {
	New            []domain.Order `json:"new"`
	InProgress     []domain.Order `json:"inProgress"`
	CompletedToday []domain.Order `json:"completedToday"`
}

func (b QueueBuckets) clone() QueueBuckets {
	cp := func(in []domain.Order) []domain.Order {
		out := make([]domain.Order, len(in))
		for i, o := range in {
			out[i] = o.Clone()
		}
		return out
	}
	return QueueBuckets{New: cp(b.New), InProgress: cp(b.InProgress), CompletedToday: cp(b.CompletedToday)}
}

// DeriveBuckets splits orders (oldest first) into the three live buckets,
// newest first. Completed orders count only when created on now's calendar
// day in loc. Cancelled orders are in no bucket.
func DeriveBuckets(orders []domain.Order, now time.Time, loc *time.Location) QueueBuckets {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()

	b := QueueBuckets{
		New:            []domain.Order{},
		InProgress:     []domain.Order{},
		CompletedToday: []domain.Order{},
	}
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		switch o.Status {
		case domain.StatusNew:
			b.New = append(b.New, o)
		case domain.StatusInProgress:
			b.InProgress = append(b.InProgress, o)
		case domain.StatusCompleted:
			oy, om, od := o.Date.In(loc).Date()
			if oy == y && om == m && od == d {
				b.CompletedToday = append(b.CompletedToday, o)
			}
		}
	}
	return b
}

// QueueView keeps the live order queue in step with the ledger: at once
// for this tab's writes, and on change notification for other tabs'.
type QueueView struct {
	ledger   *Ledger
	alerter  Alerter
	log      *slog.Logger
	location *time.Location
	Now      func() time.Time

	refreshMu sync.Mutex
	mu        sync.Mutex
	buckets   QueueBuckets
	newCount  int
}

func NewQueueView(ledger *Ledger, alerter Alerter, loc *time.Location, log *slog.Logger) *QueueView {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &QueueView{
		ledger:   ledger,
		alerter:  alerter,
		log:      log,
		location: loc,
		Now:      systemNow,
		buckets:  QueueBuckets{New: []domain.Order{}, InProgress: []domain.Order{}, CompletedToday: []domain.Order{}},
	}
}

// Start derives the buckets once and keeps them fresh until ctx is done.
func (q *QueueView) Start(ctx context.Context) error {
	unsubscribe := q.ledger.Subscribe(func(LedgerEvent) {
		q.refreshLogged(ctx)
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	if err := q.ledger.WatchExternal(ctx, func() { q.refreshLogged(ctx) }); err != nil {
		return err
	}
	_, err := q.Refresh(ctx)
	return err
}

func (q *QueueView) refreshLogged(ctx context.Context) {
	if _, err := q.Refresh(ctx); err != nil {
		q.log.Warn("queue refresh failed", "err", err)
	}
}

// Refresh re-reads the ledger and re-derives the buckets. When the new
// bucket has grown since the previous derivation the alerter fires once.
func (q *QueueView) Refresh(ctx context.Context) (QueueBuckets, error) {
	q.refreshMu.Lock()
	defer q.refreshMu.Unlock()

	orders, err := q.ledger.All(ctx)
	if err != nil {
		return QueueBuckets{}, err
	}

	q.mu.Lock()
	q.buckets = DeriveBuckets(orders, q.Now(), q.location)
	grew := len(q.buckets.New) > q.newCount
	q.newCount = len(q.buckets.New)
	n := q.newCount
	snapshot := q.buckets.clone()
	q.mu.Unlock()

	if grew && q.alerter != nil {
		q.alerter.Alert(ctx, n)
	}
	return snapshot, nil
}

func (q *QueueView) Snapshot() QueueBuckets {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buckets.clone()
}

// LogAlerter logs new-order arrivals. It stands in for the queue's sound.
type LogAlerter struct {
	Log *slog.Logger
}

func (a LogAlerter) Alert(ctx context.Context, newOrders int) {
	log := a.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("new order received", "new_orders", newOrders)
}
