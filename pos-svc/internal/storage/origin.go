package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Change signals that a key was rewritten. It carries no value: watchers
// re-read the whole document.
type Change struct {
	Key    string `json:"key"`
	Source string `json:"source"`
}

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(ctx context.Context, change Change) error
	Subscribe(ctx context.Context, fn func(Change)) error
}

// Origin is one tab's handle on the shared persistence origin. Every
// surface (service instance, kiosk, test client) owns its own Origin with
// a distinct tab id; all of them point at the same Store and Notifier.
type Origin struct {
	tabID    string
	store    Store
	notifier Notifier
	log      *slog.Logger
}

func NewOrigin(tabID string, store Store, notifier Notifier, log *slog.Logger) *Origin {
	if log == nil {
		log = slog.Default()
	}
	return &Origin{
		tabID:    tabID,
		store:    store,
		notifier: notifier,
		log:      log.With("tab", tabID),
	}
}

func (o *Origin) TabID() string {
	return o.tabID
}

func (o *Origin) Get(ctx context.Context, key string) (string, bool, error) {
	val, ok, err := o.store.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("cannot read %s: %w", key, err)
	}
	return val, ok, nil
}

// Set replaces the whole document under key and tells the other tabs.
// A failed notification is logged only: the write already happened.
func (o *Origin) Set(ctx context.Context, key, value string) error {
	if err := o.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("cannot write %s: %w", key, err)
	}
	o.notify(ctx, key)
	return nil
}

func (o *Origin) Remove(ctx context.Context, key string) error {
	if err := o.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("cannot remove %s: %w", key, err)
	}
	o.notify(ctx, key)
	return nil
}

// Watch calls fn for every change made by another tab. Changes written
// through this Origin are not echoed back. Delivery is asynchronous and
// best-effort; it stops when ctx is done.
func (o *Origin) Watch(ctx context.Context, fn func(Change)) error {
	if o.notifier == nil {
		return nil
	}
	return o.notifier.Subscribe(ctx, func(c Change) {
		if c.Source == o.tabID {
			return
		}
		fn(c)
	})
}

func (o *Origin) notify(ctx context.Context, key string) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(ctx, Change{Key: key, Source: o.tabID}); err != nil {
		o.log.Warn("change notification failed", "key", key, "err", err)
	}
}
