package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// loadDocument decodes the JSON document under key into v. It reports
// false when the key is absent. A read failure wraps ErrPersistence.
func loadDocument(ctx context.Context, origin Origin, key string, v any) (bool, error) {
	raw, ok, err := origin.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("%w: cannot decode %s: %w", ErrPersistence, key, err)
	}
	return true, nil
}

// saveDocument replaces the whole document under key. Failures are logged
// and wrap ErrPersistence; nothing is rolled back.
func saveDocument(ctx context.Context, origin Origin, log *slog.Logger, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: cannot encode %s: %w", ErrPersistence, key, err)
	}
	if err := origin.Set(ctx, key, string(payload)); err != nil {
		log.Error("save failed", "key", key, "err", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func removeDocument(ctx context.Context, origin Origin, log *slog.Logger, key string) error {
	if err := origin.Remove(ctx, key); err != nil {
		log.Error("remove failed", "key", key, "err", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
