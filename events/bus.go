package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultQueueSize is the per-subscriber queue length used by NewBus.
const DefaultQueueSize = 256

type subscriber struct {
	id      string
	kinds   map[Kind]struct{}
	queue   chan Event
	handler Handler
	done    chan struct{}

	delivered uint64
	dropped   uint64
}

func (s *subscriber) wants(kind Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}

// run drains the queue in order until it is closed.
func (s *subscriber) run() {
	defer close(s.done)
	for e := range s.queue {
		s.handler(e)
		atomic.AddUint64(&s.delivered, 1)
	}
}

// Bus fans events out to subscribers without blocking the publisher.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	queueSize   int
	seq         uint64
	closed      bool
	now         func() time.Time
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithQueueSize sets the per-subscriber queue length.
func WithQueueSize(size int) BusOption {
	return func(b *Bus) {
		if size > 0 {
			b.queueSize = size
		}
	}
}

// WithClock replaces the timestamp source, for deterministic tests.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subscribers: make(map[string]*subscriber),
		queueSize:   DefaultQueueSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for the given kinds, or for every kind when
// none are given. It returns the subscriber id used by Unsubscribe and Stats.
func (b *Bus) Subscribe(handler Handler, kinds ...Kind) (string, error) {
	if handler == nil {
		return "", ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", ErrBusClosed
	}

	s := &subscriber{
		id:      uuid.NewString(),
		kinds:   make(map[Kind]struct{}, len(kinds)),
		queue:   make(chan Event, b.queueSize),
		handler: handler,
		done:    make(chan struct{}),
	}
	for _, k := range kinds {
		s.kinds[k] = struct{}{}
	}
	b.subscribers[s.id] = s
	go s.run()

	logrus.WithFields(logrus.Fields{
		"function":      "Bus.Subscribe",
		"subscriber_id": s.id,
		"kinds":         kinds,
		"queue_size":    b.queueSize,
	}).Debug("Subscriber registered")

	return s.id, nil
}

// SubscribeChan forwards matching events into ch. Events are dropped when
// ch is full, exactly as for a slow handler.
func (b *Bus) SubscribeChan(ch chan<- Event, kinds ...Kind) (string, error) {
	if ch == nil {
		return "", ErrNilHandler
	}
	return b.Subscribe(func(e Event) {
		select {
		case ch <- e:
		default:
		}
	}, kinds...)
}

// Publish stamps e with a sequence number and timestamp and enqueues it for
// every interested subscriber. It never blocks. Publishing on a closed bus
// is a no-op.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.seq++
	e.Seq = b.seq
	if e.Timestamp.IsZero() {
		e.Timestamp = b.now()
	}

	for _, s := range b.subscribers {
		if !s.wants(e.Kind) {
			continue
		}
		select {
		case s.queue <- e:
		default:
			dropped := atomic.AddUint64(&s.dropped, 1)
			logrus.WithFields(logrus.Fields{
				"function":      "Bus.Publish",
				"subscriber_id": s.id,
				"kind":          e.Kind,
				"seq":           e.Seq,
				"dropped_total": dropped,
			}).Debug("Subscriber queue full, event dropped")
		}
	}
}

// Unsubscribe removes a subscriber. Events already queued are still
// delivered; Unsubscribe does not wait for them, so it is safe to call from
// inside the subscriber's own handler.
func (b *Bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.subscribers[id]
	if !ok {
		return ErrSubscriberNotFound
	}
	delete(b.subscribers, id)
	close(s.queue)

	logrus.WithFields(logrus.Fields{
		"function":      "Bus.Unsubscribe",
		"subscriber_id": id,
	}).Debug("Subscriber removed")

	return nil
}

// Stats returns delivery counters for a subscriber.
func (b *Bus) Stats(id string) (SubscriberStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.subscribers[id]
	if !ok {
		return SubscriberStats{}, ErrSubscriberNotFound
	}
	return SubscriberStats{
		Delivered: atomic.LoadUint64(&s.delivered),
		Dropped:   atomic.LoadUint64(&s.dropped),
		Pending:   len(s.queue),
	}, nil
}

// SubscriberCount returns the number of registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close stops accepting events, then waits until every subscriber has
// drained its queue. It must not be called from inside a handler.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subscribers
	published := b.seq
	b.subscribers = make(map[string]*subscriber)
	for _, s := range subs {
		close(s.queue)
	}
	b.mu.Unlock()

	for _, s := range subs {
		<-s.done
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Bus.Close",
		"subscribers": len(subs),
		"published":   published,
	}).Info("Event bus closed")
}
