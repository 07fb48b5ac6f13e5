// Package autocomplete drives suggestion requests from keystrokes. A Session
// debounces input, cancels superseded requests, and delivers only the batch
// belonging to the latest keystroke.
package autocomplete

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/pkg/logger"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// request is issued.
const DefaultDebounce = 300 * time.Millisecond

// Suggester answers a settled partial query. engine.SearchEngine and
// HTTPSuggester both satisfy it.
type Suggester interface {
	Suggest(ctx context.Context, partial string, limit int) ([]domain.AutocompleteSuggestion, error)
}

// Config holds per-session autocomplete settings. Zero fields use defaults.
type Config struct {
	Debounce       time.Duration
	MinChars       int
	MaxSuggestions int
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MinChars <= 0 {
		c.MinChars = domain.DefaultAutocompleteMinChars
	}
	c.MaxSuggestions = domain.ClampLimit(c.MaxSuggestions, domain.DefaultAutocompleteLimit, domain.MaxAutocompleteLimit)
	return c
}

// Batch is one delivered set of suggestions.
type Batch struct {
	Generation  uint64
	Partial     string
	Suggestions []domain.AutocompleteSuggestion
}

// Session is the autocomplete state of one input field.
type Session struct {
	id        string
	suggester Suggester
	deliver   func(Batch)
	cfg       Config
	logger    *slog.Logger
	ctx       context.Context
	stop      context.CancelFunc

	mu         sync.Mutex
	pending    *time.Timer
	generation uint64
	cancel     context.CancelFunc
	closed     bool

	// deliverMu orders deliveries so a stale batch can never follow a newer one.
	deliverMu sync.Mutex
}

// NewSession creates a session. deliver receives every current batch and
// must not call Type.
func NewSession(ctx context.Context, suggester Suggester, deliver func(Batch), cfg Config, log *slog.Logger) *Session {
	id := uuid.NewString()
	ctx = logger.WithSessionID(ctx, id)
	ctx, stop := context.WithCancel(ctx)
	return &Session{
		id:        id,
		suggester: suggester,
		deliver:   deliver,
		cfg:       cfg.withDefaults(),
		logger:    log,
		ctx:       ctx,
		stop:      stop,
	}
}

// ID returns the session identifier attached to its logs.
func (s *Session) ID() string { return s.id }

// Generation returns the number of keystrokes seen so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Type records a keystroke. Any pending or in-flight request is superseded.
// Input shorter than MinChars delivers an empty batch at once and issues no
// request; otherwise a request is issued once the debounce window passes
// without another keystroke.
func (s *Session) Type(partial string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	s.supersedeLocked()

	trimmed := strings.TrimSpace(partial)
	if utf8.RuneCountInString(trimmed) < s.cfg.MinChars {
		s.mu.Unlock()
		s.publish(Batch{Generation: gen, Partial: partial, Suggestions: []domain.AutocompleteSuggestion{}})
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.pending = time.AfterFunc(s.cfg.Debounce, func() { s.fire(ctx, gen, trimmed) })
	s.mu.Unlock()
}

// Close cancels any pending or in-flight request. Later keystrokes are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.supersedeLocked()
	s.stop()
}

func (s *Session) supersedeLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && gen == s.generation
}

func (s *Session) fire(ctx context.Context, gen uint64, partial string) {
	if !s.current(gen) {
		return
	}

	out, err := s.suggester.Suggest(ctx, partial, s.cfg.MaxSuggestions)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.WithContext(ctx, s.logger).DebugContext(ctx, "autocomplete request failed",
			slog.String("partial", partial),
			slog.Uint64("generation", gen),
			slog.String("error", err.Error()),
		)
		out = nil
	}
	if out == nil {
		out = []domain.AutocompleteSuggestion{}
	}
	if len(out) > s.cfg.MaxSuggestions {
		out = out[:s.cfg.MaxSuggestions]
	}
	s.publish(Batch{Generation: gen, Partial: partial, Suggestions: out})
}

// publish delivers b unless a newer keystroke has arrived.
func (s *Session) publish(b Batch) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if !s.current(b.Generation) {
		logger.WithContext(s.ctx, s.logger).DebugContext(s.ctx, "discarding stale suggestions",
			slog.Uint64("generation", b.Generation),
		)
		return
	}
	s.deliver(b)
}
