package collection

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/AutoMQ/collection-store/pkg/server/document"
	"github.com/AutoMQ/collection-store/pkg/server/model"
	"github.com/AutoMQ/collection-store/pkg/util/typeutil"
)

// Operation is the kind of change made to a collection.
type Operation uint8

const (
	OpPut Operation = iota
	OpDelete
	OpDrop
)

func (o Operation) String() string {
	switch o {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	case OpDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// Event is a change made to a collection. Key and Value are empty for OpDrop, Value is empty for OpDelete.
type Event struct {
	Operation Operation
	Key       string
	Value     document.Document
}

// Observer receives the changes of collections.
// Notify is called with the collection lock held, in the order the changes are made.
// It must not block or call back into the collection.
type Observer interface {
	Notify(c *Collection, e Event)
}

type nopObserver struct{}

func (nopObserver) Notify(*Collection, Event) {}

// Collection is a named, ordered set of keys.
// It is safe for concurrent use. Once dropped, every operation returns model.ErrCollectionNotFound.
type Collection struct {
	id       uint64
	name     string
	observer Observer

	mu      sync.RWMutex
	index   *Index
	dropped bool
}

func newCollection(id uint64, name string, observer Observer) *Collection {
	return &Collection{
		id:       id,
		name:     name,
		observer: observer,
		index:    NewIndex(),
	}
}

// ID returns the identifier of the collection. Collections created with the same name have different IDs.
func (c *Collection) ID() uint64 {
	return c.id
}

// Name returns the name of the collection.
func (c *Collection) Name() string {
	return c.name
}

// Put sets the value of key. It returns true if the key is new.
func (c *Collection) Put(key string, value document.Document) (created bool, err error) {
	if key == "" {
		return false, errors.Wrap(model.ErrInvalidName, "empty key")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkDropped(); err != nil {
		return false, err
	}

	created = c.index.Put(key, value)
	c.observer.Notify(c, Event{Operation: OpPut, Key: key, Value: value})
	return created, nil
}

// PutBatch sets the values of all entries, or none of them.
// It returns model.ErrMalformed if a key is duplicated in entries.
func (c *Collection) PutBatch(entries []Entry) error {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Key == "" {
			return errors.Wrap(model.ErrInvalidName, "empty key")
		}
		keys = append(keys, e.Key)
	}
	if ok, dup := typeutil.IsUnique(keys); !ok {
		return errors.Wrapf(model.ErrMalformed, "duplicated key %q in batch", dup)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkDropped(); err != nil {
		return err
	}

	for _, e := range entries {
		c.index.Put(e.Key, e.Value)
		c.observer.Notify(c, Event{Operation: OpPut, Key: e.Key, Value: e.Value})
	}
	return nil
}

// Get returns the value of key.
func (c *Collection) Get(key string) (document.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkDropped(); err != nil {
		return document.Document{}, err
	}

	value, ok := c.index.Get(key)
	if !ok {
		return document.Document{}, errors.Wrapf(model.ErrKeyNotFound, "key %q", key)
	}
	return value, nil
}

// Exists reports whether key is present.
func (c *Collection) Exists(key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkDropped(); err != nil {
		return false, err
	}
	return c.index.Exists(key), nil
}

// Delete removes key.
func (c *Collection) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkDropped(); err != nil {
		return err
	}

	if !c.index.Delete(key) {
		return errors.Wrapf(model.ErrKeyNotFound, "key %q", key)
	}
	c.observer.Notify(c, Event{Operation: OpDelete, Key: key})
	return nil
}

// List returns a snapshot of the entries within b, in insertion order.
func (c *Collection) List(b Bounds) ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkDropped(); err != nil {
		return nil, err
	}
	return c.index.List(b), nil
}

// Len returns the number of keys.
func (c *Collection) Len() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkDropped(); err != nil {
		return 0, err
	}
	return c.index.Len(), nil
}

// Guard runs fn with the collection locked for reading, so that no change happens during fn.
// fn is not run if the collection is dropped.
func (c *Collection) Guard(fn func()) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.checkDropped(); err != nil {
		return err
	}
	fn()
	return nil
}

// drop marks the collection dropped and releases its keys.
// It waits for in-flight operations on the collection.
func (c *Collection) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dropped {
		return
	}
	c.dropped = true
	c.index = NewIndex()
	c.observer.Notify(c, Event{Operation: OpDrop})
}

func (c *Collection) checkDropped() error {
	if c.dropped {
		return errors.Wrapf(model.ErrCollectionNotFound, "collection %q is dropped", c.name)
	}
	return nil
}
