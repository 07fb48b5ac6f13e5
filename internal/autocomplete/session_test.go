package autocomplete

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/engine/memory"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedSuggester answers each partial after an optional per-partial delay.
type scriptedSuggester struct {
	mu       sync.Mutex
	calls    []string
	delays   map[string]time.Duration
	err      error
	canceled atomic.Int32
	answered atomic.Int32

	// ignoreCancel makes delayed answers sleep through cancellation, like a
	// backend that cannot abort an in-flight request.
	ignoreCancel bool
}

func (s *scriptedSuggester) Suggest(ctx context.Context, partial string, limit int) ([]domain.AutocompleteSuggestion, error) {
	s.mu.Lock()
	s.calls = append(s.calls, partial)
	delay := s.delays[partial]
	err := s.err
	s.mu.Unlock()

	defer s.answered.Add(1)
	if delay > 0 && s.ignoreCancel {
		time.Sleep(delay)
	} else if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			s.canceled.Add(1)
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.AutocompleteSuggestion, 0, limit)
	for i := 0; i < limit && i < 3; i++ {
		out = append(out, domain.AutocompleteSuggestion{Name: partial + " result", Score: 0.9 - float64(i)/10})
	}
	return out, nil
}

func (s *scriptedSuggester) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type batchRecorder struct {
	mu      sync.Mutex
	batches []Batch
}

func (r *batchRecorder) deliver(b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
}

func (r *batchRecorder) Batches() []Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Batch(nil), r.batches...)
}

func TestSession_DebouncesKeystrokes(t *testing.T) {
	sug := &scriptedSuggester{}
	rec := &batchRecorder{}
	s := NewSession(context.Background(), sug, rec.deliver, Config{Debounce: 30 * time.Millisecond}, newTestLogger())
	defer s.Close()

	for _, p := range []string{"so", "soc", "sock", "socke", "socket"} {
		s.Type(p)
	}

	require.Eventually(t, func() bool { return len(rec.Batches()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"socket"}, sug.Calls())

	b := rec.Batches()[0]
	assert.Equal(t, "socket", b.Partial)
	assert.Equal(t, uint64(5), b.Generation)
	assert.NotEmpty(t, b.Suggestions)
}

func TestSession_MinCharsGate(t *testing.T) {
	sug := &scriptedSuggester{}
	rec := &batchRecorder{}
	s := NewSession(context.Background(), sug, rec.deliver, Config{Debounce: 10 * time.Millisecond, MinChars: 2}, newTestLogger())
	defer s.Close()

	s.Type("s")

	batches := rec.Batches()
	require.Len(t, batches, 1, "short input is answered synchronously")
	assert.NotNil(t, batches[0].Suggestions)
	assert.Empty(t, batches[0].Suggestions)

	s.Type("  ")
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, sug.Calls())
	assert.Len(t, rec.Batches(), 2)
}

func TestSession_LastResultWins(t *testing.T) {
	sug := &scriptedSuggester{delays: map[string]time.Duration{"cab": 200 * time.Millisecond}}
	rec := &batchRecorder{}
	s := NewSession(context.Background(), sug, rec.deliver, Config{Debounce: 5 * time.Millisecond}, newTestLogger())
	defer s.Close()

	s.Type("cab")
	require.Eventually(t, func() bool { return len(sug.Calls()) == 1 }, time.Second, time.Millisecond)

	s.Type("cable")

	require.Eventually(t, func() bool { return len(rec.Batches()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(250 * time.Millisecond)

	batches := rec.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, "cable", batches[0].Partial)
	assert.Equal(t, int32(1), sug.canceled.Load(), "superseded request is canceled")
}

func TestSession_LateStaleAnswerIsDiscarded(t *testing.T) {
	sug := &scriptedSuggester{delays: map[string]time.Duration{"sock": 150 * time.Millisecond}, ignoreCancel: true}
	rec := &batchRecorder{}
	s := NewSession(context.Background(), sug, rec.deliver, Config{Debounce: 5 * time.Millisecond}, newTestLogger())
	defer s.Close()

	s.Type("sock")
	require.Eventually(t, func() bool { return len(sug.Calls()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	s.Type("socke")

	require.Eventually(t, func() bool { return len(rec.Batches()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), sug.answered.Load(), "newer answer arrives before the older one")

	// Wait for the older request to answer despite cancellation.
	require.Eventually(t, func() bool { return sug.answered.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	batches := rec.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, "socke", batches[0].Partial)
	assert.Equal(t, uint64(2), batches[0].Generation)
	assert.Equal(t, []string{"sock", "socke"}, sug.Calls())
}

func TestSession_ShortInputSupersedesPending(t *testing.T) {
	sug := &scriptedSuggester{}
	rec := &batchRecorder{}
	s := NewSession(context.Background(), sug, rec.deliver, Config{Debounce: 20 * time.Millisecond}, newTestLogger())
	defer s.Close()

	s.Type("led")
	s.Type("l")

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, sug.Calls())
	batches := rec.Batches()
	require.Len(t, batches, 1)
	assert.Empty(t, batches[0].Suggestions)
	assert.Equal(t, uint64(2), batches[0].Generation)
}

func TestSession_ErrorDeliversEmptyBatch(t *testing.T) {
	sug := &scriptedSuggester{err: errors.New("service unavailable")}
	rec := &batchRecorder{}
	s := NewSession(context.Background(), sug, rec.deliver, Config{Debounce: 5 * time.Millisecond}, newTestLogger())
	defer s.Close()

	s.Type("mcb")

	require.Eventually(t, func() bool { return len(rec.Batches()) == 1 }, time.Second, 5*time.Millisecond)
	b := rec.Batches()[0]
	assert.NotNil(t, b.Suggestions)
	assert.Empty(t, b.Suggestions)
}

func TestSession_CapsSuggestions(t *testing.T) {
	sug := &scriptedSuggester{}
	rec := &batchRecorder{}
	s := NewSession(context.Background(), sug, rec.deliver, Config{Debounce: 5 * time.Millisecond, MaxSuggestions: 2}, newTestLogger())
	defer s.Close()

	s.Type("switch")

	require.Eventually(t, func() bool { return len(rec.Batches()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.Batches()[0].Suggestions, 2)
}

func TestSession_CloseCancelsPending(t *testing.T) {
	sug := &scriptedSuggester{}
	rec := &batchRecorder{}
	s := NewSession(context.Background(), sug, rec.deliver, Config{Debounce: 20 * time.Millisecond}, newTestLogger())

	s.Type("socket")
	s.Close()
	s.Type("socket outlet")

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, sug.Calls())
	assert.Empty(t, rec.Batches())
	assert.Equal(t, uint64(1), s.Generation())
}

func TestSession_WithMemoryEngine(t *testing.T) {
	eng := memory.New()
	require.NoError(t, eng.BulkIndex(context.Background(), []domain.Material{
		{ID: 1, Name: "13A Socket Outlet", Category: "Sockets & Switches"},
		{ID: 2, Name: "Socket Tester", Category: "Testing"},
		{ID: 3, Name: "LED Downlight 6W", Category: "Lighting"},
	}))

	rec := &batchRecorder{}
	s := NewSession(context.Background(), eng, rec.deliver, Config{Debounce: 5 * time.Millisecond}, newTestLogger())
	defer s.Close()
	require.NotEmpty(t, s.ID())

	s.Type("sock")

	require.Eventually(t, func() bool { return len(rec.Batches()) == 1 }, time.Second, 5*time.Millisecond)
	out := rec.Batches()[0].Suggestions
	require.Len(t, out, 2)
	assert.Equal(t, "Socket Tester", out[0].Name)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}
