package engine

import "sync"

// Subscription receives the Runner's outbound events.
type Subscription struct {
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
}

func newSubscription(bufferSize int) *Subscription {
	if bufferSize < 1 {
		bufferSize = 256
	}
	return &Subscription{
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// send delivers an event without blocking.
// If the buffer is full, the oldest event is dropped.
func (s *Subscription) send(evt Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}

// Events returns the channel to receive events from.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Done returns a channel closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close ends the subscription. Safe to call multiple times.
func (s *Subscription) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

func (s *Subscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
