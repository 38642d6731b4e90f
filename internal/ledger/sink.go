package ledger

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"
)

// Sink receives notices for downstream notification.
//
// Emit is called after the store write, inside the transition. Delivery is
// the sink's concern: a sink that can fail handles and reports its own
// errors, because by the time it runs the transition has already been
// applied.
type Sink interface {
	Emit(ctx context.Context, n Notice)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notice)

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, n Notice) { f(ctx, n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(context.Context, Notice) {})

// MultiSink fans a notice out to each sink in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(ctx context.Context, n Notice) {
	for _, s := range m {
		s.Emit(ctx, n)
	}
}

// MemorySink records notices in memory. Safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	notices []Notice
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Emit implements Sink.
func (s *MemorySink) Emit(_ context.Context, n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

// Notices returns a copy of the recorded notices in emission order.
func (s *MemorySink) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

// Len returns the number of recorded notices.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

// LogSink writes each notice to a structured logger at info level.
type LogSink struct {
	Logger *slog.Logger
}

// Emit implements Sink.
func (s LogSink) Emit(ctx context.Context, n Notice) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := n.Event.Fields()
	logger.InfoContext(ctx, "ledger event",
		"id", n.ID,
		"seq", n.Seq,
		"kind", string(n.Event.Kind()),
		"key", p.Key.String(),
		"tester", string(p.Tester),
		"tester_hex", hex.EncodeToString(p.Tester),
		"positive", p.Positive,
	)
}
