// Package sse pumps realtime subscriptions into Server-Sent Event streams.
package sse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/realtime"
	wafflesse "github.com/dalemusser/waffle/pantry/sse"
	"github.com/google/uuid"
)

// DefaultKeepAlive is how often a comment line is written on an idle stream.
const DefaultKeepAlive = 25 * time.Second

// RetryInterval is the reconnect delay suggested to clients.
const RetryInterval = 3 * time.Second

// NewStream opens an event stream on w. It fails when w cannot flush.
func NewStream(w http.ResponseWriter, r *http.Request) (*wafflesse.Stream, error) {
	return wafflesse.NewStream(w, r)
}

// Event builds a JSON event with a fresh id.
func Event(name string, v any) (*wafflesse.Event, error) {
	ev, err := wafflesse.NewJSONEvent(name, v)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", name, err)
	}
	return ev.WithID(uuid.NewString()), nil
}

// Pump writes every snapshot of sub as an event named name until ctx ends
// or the subscription stops. emit maps a snapshot to zero or more payloads;
// a nil emit sends the snapshot itself. Pump closes sub before returning.
func Pump[T any](ctx context.Context, stream *wafflesse.Stream, sub *realtime.Subscription[T], name string, keepAlive time.Duration, emit func(T) []any) error {
	defer sub.Close()
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan *wafflesse.Event)
	encodeErr := make(chan error, 1)
	go func() {
		defer close(events)
		for snap := range sub.Updates() {
			payloads := []any{snap}
			if emit != nil {
				payloads = emit(snap)
			}
			for _, p := range payloads {
				ev, err := Event(name, p)
				if err != nil {
					encodeErr <- err
					return
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	err := wafflesse.Serve(ctx, stream, wafflesse.Config{
		KeepAliveInterval: keepAlive,
		RetryInterval:     RetryInterval,
	}, events)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	case err != nil:
		return err
	}

	// The update channel closed: either the subscription ended or an
	// encode failed.
	select {
	case err := <-encodeErr:
		return err
	default:
		return sub.Err()
	}
}
