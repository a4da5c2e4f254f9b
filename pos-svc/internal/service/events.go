package service

import (
	"context"
	"log/slog"

	"happy-hearts-pos/pos-svc/internal/domain"
)

// ForwardStatusChanges publishes every status change this tab writes to the
// ledger. Publishing is best-effort. The returned func stops forwarding.
func ForwardStatusChanges(ctx context.Context, ledger *Ledger, publisher EventPublisher, log *slog.Logger) func() {
	if log == nil {
		log = slog.Default()
	}
	return ledger.Subscribe(func(ev LedgerEvent) {
		if ev.Type == OrderAppended {
			return
		}
		at := ev.Order.Date
		if ev.Order.UpdatedAt != nil {
			at = *ev.Order.UpdatedAt
		}
		out := domain.NewOrderEvent(domain.EventOrderStatusChanged, ev.Order, at)
		if err := publisher.PublishOrderEvent(ctx, out); err != nil {
			log.Warn("order event not published", "order_id", ev.Order.ID, "err", err)
		}
	})
}
