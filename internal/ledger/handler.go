package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Origin carries the caller identity the host authenticated for a request.
// An empty Caller means the request was not signed.
type Origin struct {
	Caller Identity
}

// Signed returns an Origin for caller.
func Signed(caller Identity) Origin {
	return Origin{Caller: caller}
}

// Verify fails with BAD_ORIGIN when the origin carries no caller.
func (o Origin) Verify(op Op) error {
	if o.Caller == "" {
		return newBadOrigin(op)
	}
	return nil
}

// Submission is the payload of a Publish or Amend request.
type Submission struct {
	Subject  []byte
	Tester   []byte
	Positive bool
}

// Service is the dispatch surface of the ledger.
type Service interface {
	Publish(ctx context.Context, origin Origin, sub Submission) (Notice, error)
	Amend(ctx context.Context, origin Origin, sub Submission) (Notice, error)
}

var _ Service = (*Handler)(nil)

// Handler applies transitions to a Store and emits notices to a Sink.
//
// Thread-safety: transitions are serialized by an internal mutex, so the
// existence check and the write of one transition are never interleaved
// with another transition on the same handler. The store must not be
// mutated by anything else while the handler owns it.
type Handler struct {
	mu            sync.Mutex
	store         Store
	sink          Sink
	deriver       *Deriver
	clock         *Clock
	ids           IDGenerator
	requireTester bool
	logger        *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock sets the clock that stamps notices. Use NewClockAt to resume
// numbering from a durable journal.
func WithClock(c *Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// WithIDGenerator sets the notice ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *Handler) { h.ids = g }
}

// WithDeriver sets the key deriver. Default: NewDeriver(canon.SHA256{}).
func WithDeriver(d *Deriver) Option {
	return func(h *Handler) { h.deriver = d }
}

// WithRequireTester rejects empty tester labels with TESTER_LABEL_EMPTY.
// Off by default: an empty label is accepted.
func WithRequireTester(require bool) Option {
	return func(h *Handler) { h.requireTester = require }
}

// WithLogger sets the logger for transition diagnostics. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler returns a Handler that owns store and emits to sink.
// A nil sink discards notices.
func NewHandler(store Store, sink Sink, opts ...Option) *Handler {
	if sink == nil {
		sink = Discard
	}
	h := &Handler{
		store:   store,
		sink:    sink,
		deriver: NewDeriver(nil),
		clock:   NewClock(),
		ids:     UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// KeyFor derives the key a transition by caller on subject would address.
func (h *Handler) KeyFor(subject []byte, caller Identity) (Key, error) {
	return h.deriver.Derive(subject, caller, FixedSequence)
}

// Publish stores a new record for (subject, caller).
// Fails with ALREADY_PUBLISHED if the key already holds a record.
func (h *Handler) Publish(ctx context.Context, origin Origin, sub Submission) (Notice, error) {
	return h.apply(ctx, OpPublish, origin, sub)
}

// Amend replaces the record for (subject, caller) with a new value.
// Fails with NOT_FOUND if nothing was published for the key.
func (h *Handler) Amend(ctx context.Context, origin Origin, sub Submission) (Notice, error) {
	return h.apply(ctx, OpAmend, origin, sub)
}

func (h *Handler) apply(ctx context.Context, op Op, origin Origin, sub Submission) (Notice, error) {
	if origin.Caller == "" {
		return Notice{}, h.reject(ctx, newBadOrigin(op))
	}
	if h.requireTester && len(sub.Tester) == 0 {
		return Notice{}, h.reject(ctx, newTesterLabelEmpty(op))
	}

	key, err := h.KeyFor(sub.Subject, origin.Caller)
	if err != nil {
		return Notice{}, fmt.Errorf("%s: %w", op, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	exists, err := h.store.Exists(ctx, key)
	if err != nil {
		return Notice{}, fmt.Errorf("%s: check existence: %w", op, err)
	}

	rec := NewRecord(sub.Positive, sub.Tester)
	payload := Payload{Tester: rec.Tester(), Key: key, Positive: sub.Positive}

	var ev Event
	switch op {
	case OpPublish:
		if exists {
			return Notice{}, h.reject(ctx, newAlreadyPublished(op, key))
		}
		if err := h.store.Insert(ctx, key, rec); err != nil {
			return Notice{}, fmt.Errorf("%s: insert: %w", op, err)
		}
		ev = Published{payload}
	case OpAmend:
		if !exists {
			return Notice{}, h.reject(ctx, newNotFound(op, key))
		}
		if err := h.store.Overwrite(ctx, key, rec); err != nil {
			return Notice{}, fmt.Errorf("%s: overwrite: %w", op, err)
		}
		ev = Updated{payload}
	default:
		return Notice{}, fmt.Errorf("unknown transition %q", op)
	}

	n := Notice{ID: h.ids.Generate(), Seq: h.clock.Next(), Event: ev}
	h.sink.Emit(ctx, n)

	h.logger.DebugContext(ctx, "transition applied",
		"op", string(op),
		"key", key.String(),
		"seq", n.Seq,
	)
	return n, nil
}

// Lookup returns the record caller holds for subject.
// Fails with NOT_FOUND if nothing was published for the key.
func (h *Handler) Lookup(ctx context.Context, origin Origin, subject []byte) (Key, Record, error) {
	if err := origin.Verify(OpLookup); err != nil {
		return Key{}, Record{}, err
	}
	key, err := h.KeyFor(subject, origin.Caller)
	if err != nil {
		return Key{}, Record{}, fmt.Errorf("%s: %w", OpLookup, err)
	}
	rec, err := h.Get(ctx, key)
	return key, rec, err
}

// Get returns the record stored at key.
// Fails with NOT_FOUND if the key holds no record.
func (h *Handler) Get(ctx context.Context, key Key) (Record, error) {
	rec, err := h.store.Get(ctx, key)
	if errors.Is(err, ErrNoRecord) {
		return Record{}, newNotFound(OpLookup, key)
	}
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", OpLookup, err)
	}
	return rec, nil
}

func (h *Handler) reject(ctx context.Context, err *TransitionError) error {
	h.logger.DebugContext(ctx, "transition rejected",
		"op", string(err.Op),
		"code", string(err.Code),
		"key", err.Key.String(),
	)
	return err
}
