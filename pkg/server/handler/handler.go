package handler

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/AutoMQ/collection-store/pkg/server/collection"
	"github.com/AutoMQ/collection-store/pkg/server/document"
	"github.com/AutoMQ/collection-store/pkg/server/model"
	"github.com/AutoMQ/collection-store/pkg/server/watch"
)

const (
	_entryKey   = "key"
	_entryValue = "value"
)

// Service dispatches requests to the collections of the store.
// Errors returned wrap the sentinel errors in package model.
type Service interface {
	CreateCollection(ctx context.Context, name string) error
	DropCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) bool
	// PutKey decodes raw in the given format and stores it under key. It returns the stored document.
	PutKey(ctx context.Context, collection, key string, raw []byte, format document.Format) (document.Document, error)
	// PutKeys decodes raw as an array of {"key": ..., "value": ...} and stores all of them, or none.
	// It returns the number of entries stored.
	PutKeys(ctx context.Context, collection string, raw []byte, format document.Format) (int, error)
	GetKey(ctx context.Context, collection, key string) (document.Document, error)
	KeyExists(ctx context.Context, collection, key string) (bool, error)
	DeleteKey(ctx context.Context, collection, key string) error
	// ListKeys returns an array of the values within bounds, in insertion order.
	// If withKeys is set, the items are {"key": ..., "value": ...} objects instead.
	ListKeys(ctx context.Context, collection string, bounds collection.Bounds, withKeys bool) (document.Document, error)
	Subscribe(ctx context.Context, collection string) (*watch.Subscriber, error)
	Unsubscribe(ctx context.Context, subscriber *watch.Subscriber)
	Stats(ctx context.Context) Stats
}

// Stats is a summary of the store.
type Stats struct {
	Collections int `json:"collections"`
	Subscribers int `json:"subscribers"`
}

// Handler implements Service.
type Handler struct {
	registry *collection.Registry
	hub      *watch.Hub
	lg       *zap.Logger
}

// NewHandler creates a Handler serving the collections in registry. Subscriptions are served by hub.
func NewHandler(registry *collection.Registry, hub *watch.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		registry: registry,
		hub:      hub,
		lg:       logger,
	}
}

func (h *Handler) CreateCollection(_ context.Context, name string) error {
	_, err := h.registry.Create(name)
	return err
}

func (h *Handler) DropCollection(_ context.Context, name string) error {
	return h.registry.Drop(name)
}

func (h *Handler) CollectionExists(_ context.Context, name string) bool {
	return h.registry.Exists(name)
}

func (h *Handler) PutKey(_ context.Context, name, key string, raw []byte, format document.Format) (document.Document, error) {
	value, err := format.Decode(raw)
	if err != nil {
		return document.Document{}, err
	}

	c, err := h.registry.Get(name)
	if err != nil {
		return document.Document{}, err
	}
	if _, err := c.Put(key, value); err != nil {
		return document.Document{}, err
	}
	return value, nil
}

func (h *Handler) PutKeys(_ context.Context, name string, raw []byte, format document.Format) (int, error) {
	batch, err := format.Decode(raw)
	if err != nil {
		return 0, err
	}
	entries, err := toEntries(batch)
	if err != nil {
		return 0, err
	}

	c, err := h.registry.Get(name)
	if err != nil {
		return 0, err
	}
	if err := c.PutBatch(entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func toEntries(batch document.Document) ([]collection.Entry, error) {
	if batch.Kind() != document.KindArray {
		return nil, errors.Wrapf(model.ErrMalformed, "batch should be an array, got %s", batch.Kind())
	}
	items := batch.Items()
	entries := make([]collection.Entry, 0, len(items))
	for i, item := range items {
		if item.Kind() != document.KindObject {
			return nil, errors.Wrapf(model.ErrMalformed, "batch item %d should be an object, got %s", i, item.Kind())
		}
		key, ok := item.Lookup(_entryKey)
		if !ok || key.Kind() != document.KindString {
			return nil, errors.Wrapf(model.ErrMalformed, "batch item %d should have a string %q", i, _entryKey)
		}
		value, ok := item.Lookup(_entryValue)
		if !ok {
			return nil, errors.Wrapf(model.ErrMalformed, "batch item %d should have a %q", i, _entryValue)
		}
		entries = append(entries, collection.Entry{Key: key.AsString(), Value: value})
	}
	return entries, nil
}

func (h *Handler) GetKey(_ context.Context, name, key string) (document.Document, error) {
	c, err := h.registry.Get(name)
	if err != nil {
		return document.Document{}, err
	}
	return c.Get(key)
}

func (h *Handler) KeyExists(_ context.Context, name, key string) (bool, error) {
	c, err := h.registry.Get(name)
	if err != nil {
		return false, err
	}
	return c.Exists(key)
}

func (h *Handler) DeleteKey(_ context.Context, name, key string) error {
	c, err := h.registry.Get(name)
	if err != nil {
		return err
	}
	return c.Delete(key)
}

func (h *Handler) ListKeys(_ context.Context, name string, bounds collection.Bounds, withKeys bool) (document.Document, error) {
	c, err := h.registry.Get(name)
	if err != nil {
		return document.Document{}, err
	}
	entries, err := c.List(bounds)
	if err != nil {
		return document.Document{}, err
	}

	items := make([]document.Document, 0, len(entries))
	for _, e := range entries {
		if withKeys {
			items = append(items, document.Object(
				document.Member{Key: _entryKey, Value: document.String(e.Key)},
				document.Member{Key: _entryValue, Value: e.Value},
			))
			continue
		}
		items = append(items, e.Value)
	}
	return document.Array(items...), nil
}

func (h *Handler) Subscribe(_ context.Context, name string) (*watch.Subscriber, error) {
	c, err := h.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return h.hub.Subscribe(c)
}

func (h *Handler) Unsubscribe(_ context.Context, subscriber *watch.Subscriber) {
	h.hub.Unsubscribe(subscriber)
}

func (h *Handler) Stats(_ context.Context) Stats {
	return Stats{
		Collections: h.registry.Count(),
		Subscribers: h.hub.Count(),
	}
}

// Logger returns the logger of the handler.
func (h *Handler) Logger() *zap.Logger {
	return h.lg
}
