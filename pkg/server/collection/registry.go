package collection

import (
	"sort"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"

	"github.com/AutoMQ/collection-store/pkg/server/model"
)

// Registry owns all collections by name.
// The registry-level locks are held only while resolving names.
type Registry struct {
	collections cmap.ConcurrentMap[string, *Collection]
	observer    Observer
	nextID      atomic.Uint64
}

// NewRegistry creates an empty Registry. The observer, if not nil, receives the changes of all collections.
func NewRegistry(observer Observer) *Registry {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Registry{
		collections: cmap.New[*Collection](),
		observer:    observer,
	}
}

// Create creates an empty collection.
// It returns model.ErrCollectionAlreadyExists if the name is taken.
func (r *Registry) Create(name string) (*Collection, error) {
	if name == "" {
		return nil, errors.Wrap(model.ErrInvalidName, "empty collection name")
	}
	c := newCollection(r.nextID.Add(1), name, r.observer)
	if !r.collections.SetIfAbsent(name, c) {
		return nil, errors.Wrapf(model.ErrCollectionAlreadyExists, "collection %q", name)
	}
	return c, nil
}

// Drop removes the collection and all its keys.
// Operations racing with the drop either finish before it or return model.ErrCollectionNotFound.
func (r *Registry) Drop(name string) error {
	c, ok := r.collections.Pop(name)
	if !ok {
		return errors.Wrapf(model.ErrCollectionNotFound, "collection %q", name)
	}
	c.drop()
	return nil
}

// Get returns the collection by name.
func (r *Registry) Get(name string) (*Collection, error) {
	c, ok := r.collections.Get(name)
	if !ok {
		return nil, errors.Wrapf(model.ErrCollectionNotFound, "collection %q", name)
	}
	return c, nil
}

// Exists reports whether the collection exists.
func (r *Registry) Exists(name string) bool {
	return r.collections.Has(name)
}

// Count returns the number of collections.
func (r *Registry) Count() int {
	return r.collections.Count()
}

// Names returns the sorted names of all collections.
func (r *Registry) Names() []string {
	names := r.collections.Keys()
	sort.Strings(names)
	return names
}
