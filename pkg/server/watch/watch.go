// Package watch fans out collection changes to subscribers.
package watch

import (
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"

	"github.com/AutoMQ/collection-store/pkg/server/collection"
	"github.com/AutoMQ/collection-store/pkg/server/document"
)

// ErrHubClosed is returned when subscribing to a closed Hub.
var ErrHubClosed = errors.New("watch hub closed")

// Event is a change delivered to subscribers.
type Event struct {
	Operation string             `json:"operation"`
	Key       string             `json:"key,omitempty"`
	Value     *document.Document `json:"value,omitempty"`
}

func newEvent(e collection.Event) Event {
	event := Event{Operation: e.Operation.String(), Key: e.Key}
	if e.Operation == collection.OpPut {
		value := e.Value
		event.Value = &value
	}
	return event
}

type subscriberSet mapset.Set[*Subscriber]

// Hub delivers the changes of collections to their subscribers.
// It implements collection.Observer. Delivery never blocks: events for a subscriber whose buffer is full are dropped.
type Hub struct {
	bufferSize  int
	subscribers cmap.ConcurrentMap[uint64, subscriberSet]

	mu     sync.RWMutex
	closed bool

	lg *zap.Logger
}

// NewHub creates a Hub whose subscribers buffer at most bufferSize events.
func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	return &Hub{
		bufferSize:  bufferSize,
		subscribers: cmap.NewWithCustomShardingFunction[uint64, subscriberSet](func(key uint64) uint32 { return uint32(key) }),
		lg:          logger,
	}
}

// Subscribe registers a subscriber for the changes of c made after this call.
// It returns model.ErrCollectionNotFound if c is dropped.
func (h *Hub) Subscribe(c *collection.Collection) (*Subscriber, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	s := newSubscriber(c, h.bufferSize)
	err := c.Guard(func() {
		h.subscribers.Upsert(c.ID(), nil, func(exist bool, valueInMap, _ subscriberSet) subscriberSet {
			if !exist {
				valueInMap = mapset.NewSet[*Subscriber]()
			}
			valueInMap.Add(s)
			return valueInMap
		})
	})
	if err != nil {
		return nil, err
	}
	h.lg.Debug("subscribe collection", zap.String("collection", c.Name()), zap.Uint64("collection-id", c.ID()))
	return s, nil
}

// Unsubscribe removes s and closes it. It is a no-op if s is already removed.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if set, ok := h.subscribers.Get(s.collectionID); ok {
		set.Remove(s)
		h.subscribers.RemoveCb(s.collectionID, func(_ uint64, v subscriberSet, exists bool) bool {
			return exists && v.Cardinality() == 0
		})
	}
	s.close()
}

// Notify implements collection.Observer.
func (h *Hub) Notify(c *collection.Collection, e collection.Event) {
	if e.Operation == collection.OpDrop {
		set, ok := h.subscribers.Pop(c.ID())
		if !ok {
			return
		}
		event := newEvent(e)
		for _, s := range set.ToSlice() {
			h.send(s, event)
			s.close()
		}
		return
	}

	set, ok := h.subscribers.Get(c.ID())
	if !ok {
		return
	}
	event := newEvent(e)
	for _, s := range set.ToSlice() {
		h.send(s, event)
	}
}

func (h *Hub) send(s *Subscriber, event Event) {
	if !s.send(event) {
		h.lg.Warn("subscriber buffer is full, drop event", zap.String("collection", s.collection),
			zap.String("operation", event.Operation), zap.String("key", event.Key), zap.Uint64("dropped", s.Dropped()))
	}
}

// Count returns the number of subscribers.
func (h *Hub) Count() (count int) {
	h.subscribers.IterCb(func(_ uint64, v subscriberSet) {
		count += v.Cardinality()
	})
	return
}

// Close closes all subscribers. Subscribe fails after Close.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	for _, id := range h.subscribers.Keys() {
		set, ok := h.subscribers.Pop(id)
		if !ok {
			continue
		}
		for _, s := range set.ToSlice() {
			s.close()
		}
	}
}

// Subscriber receives the changes of one collection.
type Subscriber struct {
	collectionID uint64
	collection   string

	mu      sync.Mutex
	events  chan Event
	closed  bool
	dropped atomic.Uint64
}

func newSubscriber(c *collection.Collection, bufferSize int) *Subscriber {
	return &Subscriber{
		collectionID: c.ID(),
		collection:   c.Name(),
		events:       make(chan Event, bufferSize),
	}
}

// Events returns the channel of events. It is closed when the subscriber is unsubscribed,
// the collection is dropped, or the hub is closed.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Collection returns the name of the collection subscribed.
func (s *Subscriber) Collection() string {
	return s.collection
}

// Dropped returns the number of events dropped because the buffer was full.
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscriber) send(event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.events <- event:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
