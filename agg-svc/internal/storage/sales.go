package storage

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"happy-hearts-pos/agg-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultRetention = 90 * 24 * time.Hour

// SalesStore keeps per-day sales tallies in Redis. Each order also gets a
// marker hash recording the day it was counted on and which later statuses
// have been applied, so redelivered events are counted once.
type SalesStore struct {
	Client    *redis.Client
	Prefix    string
	Retention time.Duration
	Location  *time.Location
}

func NewSalesStore(client *redis.Client, prefix string, retention time.Duration, loc *time.Location) *SalesStore {
	if retention <= 0 {
		retention = defaultRetention
	}
	if loc == nil {
		loc = time.Local
	}
	return &SalesStore{Client: client, Prefix: prefix, Retention: retention, Location: loc}
}

func (s *SalesStore) Day(t time.Time) string {
	return t.In(s.Location).Format("2006-01-02")
}

func (s *SalesStore) DailyKey(day string) string {
	return s.Prefix + "daily:" + day
}

func (s *SalesStore) ItemsKey(day string) string {
	return s.Prefix + "items:" + day
}

func (s *SalesStore) OrderKey(orderID string) string {
	return s.Prefix + "order:" + orderID
}

// RecordSale counts a newly placed order. It reports false when the order
// was already counted.
func (s *SalesStore) RecordSale(ctx context.Context, ev domain.OrderEvent) (bool, error) {
	day := s.Day(ev.Timestamp)
	orderKey := s.OrderKey(ev.OrderID)

	first, err := s.Client.HSetNX(ctx, orderKey, "day", day).Result()
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}

	dailyKey, itemsKey := s.DailyKey(day), s.ItemsKey(day)
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Expire(ctx, orderKey, s.Retention)
		pipe.HIncrByFloat(ctx, dailyKey, "revenue", ev.Total)
		pipe.HIncrBy(ctx, dailyKey, "orders", 1)
		for _, item := range ev.Items {
			pipe.ZIncrBy(ctx, itemsKey, float64(item.Quantity), item.Label())
		}
		pipe.Expire(ctx, dailyKey, s.Retention)
		pipe.Expire(ctx, itemsKey, s.Retention)
		return nil
	})
	if err != nil {
		s.unmark(ctx, orderKey, "day")
		return false, err
	}
	return true, nil
}

// unmark drops a dedupe marker whose tally never landed so a redelivery
// can count it.
func (s *SalesStore) unmark(ctx context.Context, orderKey, field string) {
	s.Client.HDel(context.WithoutCancel(ctx), orderKey, field)
}

// RecordStatus applies a completion or cancellation to the day the order
// was placed on. Orders this store never counted are skipped, as are
// statuses already applied.
func (s *SalesStore) RecordStatus(ctx context.Context, ev domain.OrderEvent) (bool, error) {
	if ev.Status != domain.StatusCompleted && ev.Status != domain.StatusCancelled {
		return false, nil
	}
	orderKey := s.OrderKey(ev.OrderID)

	day, err := s.Client.HGet(ctx, orderKey, "day").Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	first, err := s.Client.HSetNX(ctx, orderKey, ev.Status, "1").Result()
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}

	dailyKey, itemsKey := s.DailyKey(day), s.ItemsKey(day)
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, dailyKey, ev.Status, 1)
		if ev.Status == domain.StatusCancelled {
			pipe.HIncrByFloat(ctx, dailyKey, "revenue", -ev.Total)
			pipe.HIncrBy(ctx, dailyKey, "orders", -1)
			for _, item := range ev.Items {
				pipe.ZIncrBy(ctx, itemsKey, -float64(item.Quantity), item.Label())
			}
		}
		return nil
	})
	if err != nil {
		s.unmark(ctx, orderKey, ev.Status)
		return false, err
	}
	return true, nil
}

// Daily reads the tally for day with up to top best-selling items.
func (s *SalesStore) Daily(ctx context.Context, day string, top int64) (domain.DailySales, error) {
	out := domain.DailySales{Day: day, TopItems: []domain.ItemTally{}}

	fields, err := s.Client.HGetAll(ctx, s.DailyKey(day)).Result()
	if err != nil {
		return out, err
	}
	if v, err := strconv.ParseFloat(fields["revenue"], 64); err == nil {
		out.Revenue = math.Round(v*100) / 100
	}
	out.Orders, _ = strconv.ParseInt(fields["orders"], 10, 64)
	out.Completed, _ = strconv.ParseInt(fields[domain.StatusCompleted], 10, 64)
	out.Cancelled, _ = strconv.ParseInt(fields[domain.StatusCancelled], 10, 64)

	if top <= 0 {
		return out, nil
	}
	ranked, err := s.Client.ZRevRangeWithScores(ctx, s.ItemsKey(day), 0, top-1).Result()
	if err != nil {
		return out, err
	}
	for _, z := range ranked {
		if z.Score <= 0 {
			continue
		}
		label, _ := z.Member.(string)
		out.TopItems = append(out.TopItems, domain.ItemTally{Label: label, Quantity: z.Score})
	}
	return out, nil
}
