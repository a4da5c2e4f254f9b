package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSNotifier carries change signals over a NATS subject. It pairs with
// any Store when the store itself has no change feed.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
}

func NewNATSNotifier(conn *nats.Conn, subject string, log *slog.Logger) *NATSNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &NATSNotifier{conn: conn, subject: subject, log: log}
}

func (n *NATSNotifier) Notify(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.subject, payload)
}

func (n *NATSNotifier) Subscribe(ctx context.Context, fn func(Change)) error {
	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		var change Change
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			n.log.Warn("malformed change notification", "subject", n.subject, "err", err)
			return
		}
		fn(change)
	})
	if err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", n.subject, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

func (n *NATSNotifier) Close() error {
	n.conn.Close()
	return nil
}
