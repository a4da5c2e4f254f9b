package storage

import (
	"context"
	"errors"
	"sync"
)

var ErrUnavailable = errors.New("storage unavailable")

// MemoryBackend is an in-process Store and Notifier. Several Origins built
// on the same backend behave like tabs sharing one browser storage area.
type MemoryBackend struct {
	mu      sync.RWMutex
	data    map[string]string
	failing bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Change
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]string),
		subs: make(map[int]chan Change),
	}
}

// SetFailing makes every read and write return ErrUnavailable.
func (m *MemoryBackend) SetFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

func (m *MemoryBackend) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failing {
		return "", false, ErrUnavailable
	}
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrUnavailable
	}
	m.data[key] = value
	return nil
}

func (m *MemoryBackend) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrUnavailable
	}
	delete(m.data, key)
	return nil
}

// Notify queues the change for every subscriber. A subscriber whose
// buffer is full misses it.
func (m *MemoryBackend) Notify(ctx context.Context, change Change) error {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

func (m *MemoryBackend) Subscribe(ctx context.Context, fn func(Change)) error {
	ch := make(chan Change, 64)

	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.subMu.Unlock()

	go func() {
		defer func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-ch:
				fn(c)
			}
		}
	}()
	return nil
}
