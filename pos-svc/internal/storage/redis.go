package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const DefaultChangeChannel = "changes"

type RedisStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{Client: client, Prefix: prefix}
}

func (s *RedisStore) StorageKey(key string) string {
	return s.Prefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.Client.Get(ctx, s.StorageKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.Client.Set(ctx, s.StorageKey(key), value, 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.StorageKey(key)).Err()
}

// RedisNotifier fans changes out over a pub/sub channel.
type RedisNotifier struct {
	Client  *redis.Client
	Channel string
	Log     *slog.Logger
}

func NewRedisNotifier(client *redis.Client, channel string, log *slog.Logger) *RedisNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &RedisNotifier{Client: client, Channel: channel, Log: log}
}

func (n *RedisNotifier) Notify(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return n.Client.Publish(ctx, n.Channel, payload).Err()
}

// Subscribe returns once the subscription is confirmed by the server.
func (n *RedisNotifier) Subscribe(ctx context.Context, fn func(Change)) error {
	pubsub := n.Client.Subscribe(ctx, n.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("cannot subscribe to %s: %w", n.Channel, err)
	}

	go func() {
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					n.Log.Warn("malformed change notification", "channel", n.Channel, "err", err)
					continue
				}
				fn(change)
			}
		}
	}()
	return nil
}
