package source

import (
	"sync"

	"rheedview/internal/frame"
)

// FrameEvent is one frame notification delivered over a channel subscription.
type FrameEvent struct {
	Frame *frame.Frame
	Index int
}

// Handler signatures for the four notification kinds.
type (
	FrameHandler func(f *frame.Frame, index int)
	StateHandler func(s State)
	ErrorHandler func(msg string)
	RateHandler  func(fps float64)
)

type subscription struct {
	onFrame FrameHandler
	onState StateHandler
	onError ErrorHandler
	onRate  RateHandler
	frameCh chan FrameEvent
}

// Events dispatches frame-source notifications to subscribers. Handlers are
// invoked synchronously in publish order; there is a single producer per
// source, so no two deliveries for one source are ever concurrent. Channel
// subscribers are served with a non-blocking send and drop events when full.
type Events struct {
	subscribers map[*subscription]bool
	mu          sync.RWMutex
}

// NewEvents creates an empty dispatcher.
func NewEvents() *Events {
	return &Events{
		subscribers: make(map[*subscription]bool),
	}
}

func (e *Events) add(sub *subscription) func() {
	e.mu.Lock()
	e.subscribers[sub] = true
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		if _, ok := e.subscribers[sub]; ok {
			delete(e.subscribers, sub)
			if sub.frameCh != nil {
				close(sub.frameCh)
			}
		}
		e.mu.Unlock()
	}
}

// OnFrame registers a handler for frame_ready notifications.
// Returns an unsubscribe function.
func (e *Events) OnFrame(h FrameHandler) func() {
	return e.add(&subscription{onFrame: h})
}

// OnState registers a handler for state_changed notifications.
func (e *Events) OnState(h StateHandler) func() {
	return e.add(&subscription{onState: h})
}

// OnError registers a handler for error notifications.
func (e *Events) OnError(h ErrorHandler) func() {
	return e.add(&subscription{onError: h})
}

// OnRate registers a handler for rate_updated notifications.
func (e *Events) OnRate(h RateHandler) func() {
	return e.add(&subscription{onRate: h})
}

// SubscribeFrames returns a channel that receives frame notifications with
// the given buffer size, and an unsubscribe function. A slow consumer drops
// frames rather than blocking the producer.
func (e *Events) SubscribeFrames(bufferSize int) (<-chan FrameEvent, func()) {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	sub := &subscription{frameCh: make(chan FrameEvent, bufferSize)}
	return sub.frameCh, e.add(sub)
}

// EmitFrame publishes a frame_ready notification.
func (e *Events) EmitFrame(f *frame.Frame, index int) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for sub := range e.subscribers {
		if sub.onFrame != nil {
			sub.onFrame(f, index)
		}
		if sub.frameCh != nil {
			select {
			case sub.frameCh <- FrameEvent{Frame: f, Index: index}:
			default:
				// Subscriber is slow, drop.
			}
		}
	}
}

// EmitState publishes a state_changed notification.
func (e *Events) EmitState(s State) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for sub := range e.subscribers {
		if sub.onState != nil {
			sub.onState(s)
		}
	}
}

// EmitError publishes an error notification.
func (e *Events) EmitError(msg string) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for sub := range e.subscribers {
		if sub.onError != nil {
			sub.onError(msg)
		}
	}
}

// EmitRate publishes a rate_updated notification with the observed fps.
func (e *Events) EmitRate(fps float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for sub := range e.subscribers {
		if sub.onRate != nil {
			sub.onRate(fps)
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (e *Events) SubscriberCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subscribers)
}

// Close unsubscribes everything and closes channel subscriptions.
func (e *Events) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for sub := range e.subscribers {
		if sub.frameCh != nil {
			close(sub.frameCh)
		}
		delete(e.subscribers, sub)
	}
}
