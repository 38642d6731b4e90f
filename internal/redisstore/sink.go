package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/labledger/internal/ledger"
)

var _ ledger.Sink = (*Sink)(nil)

// Sink publishes notices as JSON on the namespace's record_events channel.
type Sink struct {
	rdb     *redis.Client
	channel string
	logger  *slog.Logger
}

// NewSink returns a Sink publishing on RecordEventsChannel(namespace).
// A nil logger uses slog.Default().
func NewSink(rdb *redis.Client, namespace string, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{rdb: rdb, channel: RecordEventsChannel(namespace), logger: logger}
}

// Emit implements ledger.Sink. The transition has already committed, so a
// publish failure is logged and dropped.
func (s *Sink) Emit(ctx context.Context, n ledger.Notice) {
	if err := s.Publish(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notice",
			"id", n.ID,
			"seq", n.Seq,
			"channel", s.channel,
			"error", err,
		)
	}
}

// Publish sends n and reports failures.
func (s *Sink) Publish(ctx context.Context, n ledger.Notice) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}
	return nil
}

// Subscription is an active Pub/Sub subscription to notices.
// Caller must call Close() when done.
type Subscription struct {
	events <-chan ledger.Notice
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of decoded notices.
func (s *Subscription) Events() <-chan ledger.Notice {
	return s.events
}

// Errors returns the channel of decode errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens for notices on the sink's channel. The subscription is
// confirmed before Subscribe returns, so notices published afterwards are
// delivered. Context cancellation also stops the subscription.
func (s *Sink) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	events := make(chan ledger.Notice, 10)
	errs := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(events)
		defer close(errs)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var n ledger.Notice
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					select {
					case errs <- fmt.Errorf("failed to unmarshal notice: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case events <- n:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: events, errors: errs, cancel: cancel}, nil
}
