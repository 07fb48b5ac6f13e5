package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedStore(ttl time.Duration) (*MemoryIdempotencyStore, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := NewMemoryIdempotencyStore(ttl)
	s.now = c.now
	return s, c
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, c := newClockedStore(time.Minute)

	seen, err := s.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.Add(ctx, "evt-1"))
	c.advance(59 * time.Second)
	seen, _ = s.Contains(ctx, "evt-1")
	assert.True(t, seen)

	c.advance(time.Second)
	seen, _ = s.Contains(ctx, "evt-1")
	assert.False(t, seen, "entry expires exactly at ttl")
}

func TestMemoryIdempotencyStore_AddSweepsExpired(t *testing.T) {
	ctx := context.Background()
	s, c := newClockedStore(time.Minute)

	for i := range 5 {
		require.NoError(t, s.Add(ctx, fmt.Sprintf("old-%d", i)))
	}
	c.advance(2 * time.Minute)
	require.NoError(t, s.Add(ctx, "fresh"))

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.seen, 1)
	assert.Contains(t, s.seen, "fresh")
}

func TestMemoryIdempotencyStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryIdempotencyStore(time.Minute)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("evt-%d", i%10)
			_ = s.Add(ctx, id)
			_, _ = s.Contains(ctx, id)
		}()
	}
	wg.Wait()

	for i := range 10 {
		seen, err := s.Contains(ctx, fmt.Sprintf("evt-%d", i))
		require.NoError(t, err)
		assert.True(t, seen)
	}
}

type flakyStore struct {
	lookupErr error
	addErr    error
	added     []string
}

func (f *flakyStore) Contains(context.Context, string) (bool, error) { return false, f.lookupErr }

func (f *flakyStore) Add(_ context.Context, id string) error {
	f.added = append(f.added, id)
	return f.addErr
}

func materialEvent(id string) *Event {
	return &Event{EventID: id, EventType: "elec.material.updated", AggregateID: "42"}
}

func TestIdempotentHandler(t *testing.T) {
	boom := errors.New("index write failed")

	tests := []struct {
		name      string
		store     func() IdempotencyStore
		events    []*Event
		innerErr  error
		wantCalls int
		wantErr   error
	}{
		{
			name:      "duplicate skipped",
			store:     func() IdempotencyStore { return NewMemoryIdempotencyStore(time.Hour) },
			events:    []*Event{materialEvent("a"), materialEvent("a")},
			wantCalls: 1,
		},
		{
			name:      "distinct ids both handled",
			store:     func() IdempotencyStore { return NewMemoryIdempotencyStore(time.Hour) },
			events:    []*Event{materialEvent("a"), materialEvent("b")},
			wantCalls: 2,
		},
		{
			name:      "missing id never deduplicated",
			store:     func() IdempotencyStore { return NewMemoryIdempotencyStore(time.Hour) },
			events:    []*Event{materialEvent(""), materialEvent(""), materialEvent("")},
			wantCalls: 3,
		},
		{
			name:      "failed event retried",
			store:     func() IdempotencyStore { return NewMemoryIdempotencyStore(time.Hour) },
			events:    []*Event{materialEvent("a"), materialEvent("a")},
			innerErr:  boom,
			wantCalls: 2,
			wantErr:   boom,
		},
		{
			name:      "store outage handles anyway",
			store:     func() IdempotencyStore { return &flakyStore{lookupErr: errors.New("down"), addErr: errors.New("down")} },
			events:    []*Event{materialEvent("a"), materialEvent("a")},
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			h := IdempotentHandler(tt.store(), func(context.Context, *Event) error {
				calls++
				return tt.innerErr
			}, testLogger())

			var lastErr error
			for _, e := range tt.events {
				lastErr = h(context.Background(), e)
			}

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, lastErr, tt.wantErr)
			} else {
				assert.NoError(t, lastErr)
			}
		})
	}
}

func TestIdempotentHandler_RecordsOnlyAfterSuccess(t *testing.T) {
	store := &flakyStore{}
	h := IdempotentHandler(store, func(_ context.Context, e *Event) error {
		if e.EventID == "bad" {
			return errors.New("rejected")
		}
		return nil
	}, testLogger())

	require.NoError(t, h(context.Background(), materialEvent("good")))
	require.Error(t, h(context.Background(), materialEvent("bad")))

	assert.Equal(t, []string{"good"}, store.added)
}

func TestIdempotentHandler_CountsDuplicates(t *testing.T) {
	counter := duplicateEvents.WithLabelValues("elec.material.updated")
	before := testutil.ToFloat64(counter)

	h := IdempotentHandler(NewMemoryIdempotencyStore(time.Hour), func(context.Context, *Event) error { return nil }, testLogger())
	for range 3 {
		require.NoError(t, h(context.Background(), materialEvent("dup-metric")))
	}

	assert.InDelta(t, before+2, testutil.ToFloat64(counter), 1e-9)
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	s := NewRedisIdempotencyStore(client, "materials-search:", time.Minute)

	seen, err := s.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.Add(ctx, "evt-1"))
	assert.True(t, mr.Exists("materials-search:processed:evt-1"))

	seen, err = s.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(2 * time.Minute)
	seen, err = s.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisIdempotencyStore_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	s := NewRedisIdempotencyStore(client, "x:", time.Minute)

	_, err := s.Contains(context.Background(), "evt-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "look up event evt-1")

	err = s.Add(context.Background(), "evt-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record event evt-1")
}
