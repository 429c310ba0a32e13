package events

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mischback/krachkiste/internal/logging"
)

var (
	ErrBusClosed       = errors.New("events: bus is closed")
	ErrHandlerNotFound = errors.New("events: handler not found")
	ErrNilHandler      = errors.New("events: nil handler provided")
)

// defaultQueueSize bounds the number of pending events. Publishing to a
// full queue drops the event and increments the Dropped counter.
const defaultQueueSize = 64

// Bus is a process-wide publish/subscribe mechanism. Events are queued by
// Publish and delivered in order by a single delivery goroutine, so all
// handlers for a given event run sequentially and events never overtake
// each other.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic]map[uint64]Handler
	nextID   uint64
	closed   bool

	queue chan Event
	done  chan struct{}

	published uint64
	delivered uint64
	dropped   uint64
}

// NewBus creates a bus and starts its delivery goroutine.
func NewBus() *Bus {
	b := &Bus{
		handlers: make(map[Topic]map[uint64]Handler),
		queue:    make(chan Event, defaultQueueSize),
		done:     make(chan struct{}),
	}
	go b.deliver()
	return b
}

// Subscribe registers a handler for a topic. The returned token is needed
// to unsubscribe.
func (b *Bus) Subscribe(topic Topic, h Handler) (Token, error) {
	if h == nil {
		return Token{}, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Token{}, ErrBusClosed
	}

	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[uint64]Handler)
	}
	b.handlers[topic][id] = h

	return Token{topic: topic, id: id}, nil
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(token Token) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	hs, ok := b.handlers[token.topic]
	if !ok {
		return ErrHandlerNotFound
	}
	if _, ok := hs[token.id]; !ok {
		return ErrHandlerNotFound
	}
	delete(hs, token.id)
	return nil
}

// Publish enqueues an event for delivery. Publish never blocks; if the
// queue is full the event is dropped and accounted for in Stats.
func (b *Bus) Publish(event Event) {
	// The read lock is held across the send so Close cannot shut the
	// queue down between the closed check and the send.
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	atomic.AddUint64(&b.published, 1)

	select {
	case b.queue <- event:
	default:
		atomic.AddUint64(&b.dropped, 1)
		logging.Warn("Event queue full, dropping event",
			zap.String("topic", string(event.Topic)),
		)
	}
}

// Stats returns a snapshot of the bus delivery metrics.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: atomic.LoadUint64(&b.published),
		Delivered: atomic.LoadUint64(&b.delivered),
		Dropped:   atomic.LoadUint64(&b.dropped),
	}
}

// Close shuts down the bus. Pending events are delivered before the
// delivery goroutine exits. Close is idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.queue)
	<-b.done
}

// deliver drains the queue and invokes all handlers registered for each
// event's topic.
func (b *Bus) deliver() {
	defer close(b.done)

	for event := range b.queue {
		b.mu.RLock()
		hs := make([]Handler, 0, len(b.handlers[event.Topic]))
		for _, h := range b.handlers[event.Topic] {
			hs = append(hs, h)
		}
		b.mu.RUnlock()

		for _, h := range hs {
			h(event)
		}
		atomic.AddUint64(&b.delivered, 1)
	}
}
