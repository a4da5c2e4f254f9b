package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"happy-hearts-pos/agg-svc/internal/domain"
)

type Consumer struct {
	Reader MessageReader
	Store  StoreInterface
	Log    *slog.Logger
}

func NewConsumer(reader MessageReader, store StoreInterface, log *slog.Logger) *Consumer {
	return &Consumer{
		Reader: reader,
		Store:  store,
		Log:    log,
	}
}

func (c *Consumer) logger() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}

// Start reads order events until ctx is done or the reader is closed.
func (c *Consumer) Start(ctx context.Context) {
	log := c.logger()
	log.Info("starting sales aggregation consumer")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				log.Info("sales aggregation consumer stopped")
				return
			}
			log.Error("error reading message", "err", err)
			continue
		}

		var ev domain.OrderEvent
		if err := json.Unmarshal(message.Value, &ev); err != nil {
			log.Error("error unmarshaling message", "offset", message.Offset, "err", err)
			continue
		}

		c.ProcessEvent(ctx, ev)
	}
}

func (c *Consumer) ProcessEvent(ctx context.Context, ev domain.OrderEvent) {
	log := c.logger().With("order_id", ev.OrderID, "type", ev.Type)

	var (
		counted bool
		err     error
	)
	switch ev.Type {
	case domain.EventOrderPlaced:
		counted, err = c.Store.RecordSale(ctx, ev)
	case domain.EventOrderStatusChanged:
		counted, err = c.Store.RecordStatus(ctx, ev)
	default:
		log.Debug("ignoring event")
		return
	}

	if err != nil {
		log.Error("error updating sales tally", "err", err)
		return
	}
	if !counted {
		log.Debug("event already applied or not tallied", "status", ev.Status)
		return
	}
	log.Info("sales tally updated", "status", ev.Status, "total", ev.Total)
}
