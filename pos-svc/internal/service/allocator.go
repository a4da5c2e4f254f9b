package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const LastOrderIDKey = "lastOrderId"

// Allocator hands out sequential order numbers from a shared counter.
// The read and the write are separate calls, so two tabs allocating at the
// same moment can receive the same number.
type Allocator struct {
	origin Origin
	log    *slog.Logger
	Now    func() time.Time
}

func NewAllocator(origin Origin, log *slog.Logger) *Allocator {
	if log == nil {
		log = slog.Default()
	}
	return &Allocator{origin: origin, log: log, Now: systemNow}
}

// Next returns the next order number. When the counter cannot be read or
// written it returns the current Unix time in milliseconds instead and
// reports degraded=true; such ids are unique in practice but not sequential.
func (a *Allocator) Next(ctx context.Context) (id string, degraded bool) {
	raw, _, err := a.origin.Get(ctx, LastOrderIDKey)
	if err != nil {
		return a.fallback(err), true
	}

	next := parseCounter(raw) + 1
	id = strconv.FormatInt(next, 10)
	if err := a.origin.Set(ctx, LastOrderIDKey, id); err != nil {
		return a.fallback(err), true
	}
	return id, false
}

func (a *Allocator) fallback(err error) string {
	id := strconv.FormatInt(a.Now().UnixMilli(), 10)
	a.log.Warn("order id allocation degraded", "fallback_id", id, "err", err)
	return id
}

// parseCounter reads the leading integer of raw. Anything unparsable
// counts as zero.
func parseCounter(raw string) int64 {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
