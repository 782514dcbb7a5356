package events

import (
	"context"
	"fmt"
	"time"
)

// DefaultDebounce is the quiet period that collapses a burst of events
// into one nudge.
const DefaultDebounce = 200 * time.Millisecond

// Debounce emits one value on the returned channel once in has been quiet
// for wait after one or more signals. Nudges the consumer has not taken
// yet are coalesced. The returned channel closes when ctx is done or in is
// closed.
func Debounce(ctx context.Context, in <-chan struct{}, wait time.Duration) <-chan struct{} {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)

		timer := time.NewTimer(0)
		timer.Stop()
		select {
		case <-timer.C:
		default:
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-in:
				if !ok {
					return
				}
				timer.Reset(wait)
			case <-timer.C:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out
}

// Listen watches topic and returns debounced nudges. The returned stop
// function ends the subscription and closes the nudge channel.
func Listen(ctx context.Context, s Signaler, topic string, wait time.Duration) (<-chan struct{}, func(), error) {
	if topic == "" {
		topic = TopicBlocks
	}
	ctx, stop := context.WithCancel(ctx)
	signals, err := s.Signal(ctx, topic)
	if err != nil {
		stop()
		return nil, nil, fmt.Errorf("watching block events: %w", err)
	}
	return Debounce(ctx, signals, wait), stop, nil
}
