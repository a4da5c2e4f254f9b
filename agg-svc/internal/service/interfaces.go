package service

import (
	"context"

	"happy-hearts-pos/agg-svc/internal/domain"
	"happy-hearts-pos/agg-svc/internal/storage"

	"github.com/segmentio/kafka-go"
)

type StoreInterface interface {
	RecordSale(ctx context.Context, ev domain.OrderEvent) (bool, error)
	RecordStatus(ctx context.Context, ev domain.OrderEvent) (bool, error)
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type ConsumerInterface interface {
	Start(ctx context.Context)
	ProcessEvent(ctx context.Context, ev domain.OrderEvent)
}

var (
	_ StoreInterface    = (*storage.SalesStore)(nil)
	_ MessageReader     = (*kafka.Reader)(nil)
	_ ConsumerInterface = (*Consumer)(nil)
)
