// Package realtime turns change streams into snapshot subscriptions.
//
// A subscription opens a stream, loads a full snapshot, and reloads it on
// every change event. Consumers read snapshots from Updates until the
// subscription ends, then check Err.
package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/couponhub/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrClosed is returned by Close after the first call.
var ErrClosed = errors.New("realtime: subscription already closed")

// Stream is a source of change notifications. *mongo.ChangeStream
// satisfies it.
type Stream interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}

// Watcher opens a Stream.
type Watcher func(ctx context.Context) (Stream, error)

// FromChangeStream adapts a store's Watch method.
func FromChangeStream(open func(ctx context.Context) (*mongo.ChangeStream, error)) Watcher {
	return func(ctx context.Context) (Stream, error) {
		cs, err := open(ctx)
		if err != nil {
			return nil, err
		}
		return cs, nil
	}
}

// Loader reads a complete snapshot.
type Loader[T any] func(ctx context.Context) (T, error)

// Subscription delivers snapshots until it is closed or its stream fails.
type Subscription[T any] struct {
	feed    string
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}
	log     *zap.Logger

	once   sync.Once
	mu     sync.Mutex
	err    error
	closed bool
}

// Subscribe opens the stream, delivers an initial snapshot and then one
// snapshot per change event. A failed reload is logged and the
// subscription keeps going; a failed stream ends it.
func Subscribe[T any](ctx context.Context, feed string, watch Watcher, load Loader[T], logger *zap.Logger) (*Subscription[T], error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	stream, err := watch(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &Subscription[T]{
		feed:    feed,
		updates: make(chan T, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
		log:     logger.With(zap.String("feed", feed)),
	}
	metrics.ActiveSubscriptions.WithLabelValues(feed).Inc()
	go s.run(ctx, stream, load)
	return s, nil
}

// Updates yields snapshots in order. Only the newest pending snapshot is
// kept when the consumer falls behind. The channel closes when the
// subscription ends.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Done is closed once the subscription goroutine has exited.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Err reports why the subscription ended. It is nil while running and after
// a normal Close.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the subscription and waits for its goroutine. Only the first
// call releases resources; later calls return ErrClosed.
func (s *Subscription[T]) Close() error {
	err := ErrClosed
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
		<-s.done
		err = nil
	})
	return err
}

func (s *Subscription[T]) run(ctx context.Context, stream Stream, load Loader[T]) {
	defer func() {
		// The stream context is already canceled here.
		if err := stream.Close(context.Background()); err != nil {
			s.log.Debug("close stream", zap.Error(err))
		}
		close(s.updates)
		metrics.ActiveSubscriptions.WithLabelValues(s.feed).Dec()
		close(s.done)
	}()

	s.reload(ctx, load)
	for stream.Next(ctx) {
		s.reload(ctx, load)
	}
	if ctx.Err() != nil {
		return
	}
	err := stream.Err()
	if err == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.err = err
	}
	s.mu.Unlock()
	s.log.Warn("change stream ended", zap.Error(err))
}

func (s *Subscription[T]) reload(ctx context.Context, load Loader[T]) {
	snap, err := load(ctx)
	metrics.RecordReload(s.feed, err)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("snapshot reload failed", zap.Error(err))
		}
		return
	}
	s.deliver(snap)
}

// deliver replaces any undelivered snapshot with snap.
func (s *Subscription[T]) deliver(snap T) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
