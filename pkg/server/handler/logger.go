package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/AutoMQ/collection-store/pkg/server/collection"
	"github.com/AutoMQ/collection-store/pkg/server/document"
	"github.com/AutoMQ/collection-store/pkg/server/watch"
	"github.com/AutoMQ/collection-store/pkg/util/traceutil"
)

type LogAble interface {
	Service
	Logger() *zap.Logger
}

// Logger is a wrapper of Service that logs all operations.
type Logger struct {
	LogAble
}

func (l Logger) CreateCollection(ctx context.Context, name string) (err error) {
	err = l.LogAble.CreateCollection(ctx, name)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("create collection", zap.String("collection", name), zap.Error(err))
	}
	return
}

func (l Logger) DropCollection(ctx context.Context, name string) (err error) {
	err = l.LogAble.DropCollection(ctx, name)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("drop collection", zap.String("collection", name), zap.Error(err))
	}
	return
}

func (l Logger) CollectionExists(ctx context.Context, name string) (exists bool) {
	exists = l.LogAble.CollectionExists(ctx, name)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("check collection", zap.String("collection", name), zap.Bool("exists", exists))
	}
	return
}

func (l Logger) PutKey(ctx context.Context, name, key string, raw []byte, format document.Format) (value document.Document, err error) {
	value, err = l.LogAble.PutKey(ctx, name, key, raw, format)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("put key", zap.String("collection", name), zap.String("key", key),
			zap.Int("size", len(raw)), zap.Stringer("format", format), zap.Error(err))
	}
	return
}

func (l Logger) PutKeys(ctx context.Context, name string, raw []byte, format document.Format) (count int, err error) {
	count, err = l.LogAble.PutKeys(ctx, name, raw, format)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("put keys", zap.String("collection", name), zap.Int("count", count),
			zap.Int("size", len(raw)), zap.Stringer("format", format), zap.Error(err))
	}
	return
}

func (l Logger) GetKey(ctx context.Context, name, key string) (value document.Document, err error) {
	value, err = l.LogAble.GetKey(ctx, name, key)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("get key", zap.String("collection", name), zap.String("key", key), zap.Error(err))
	}
	return
}

func (l Logger) KeyExists(ctx context.Context, name, key string) (exists bool, err error) {
	exists, err = l.LogAble.KeyExists(ctx, name, key)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("check key", zap.String("collection", name), zap.String("key", key), zap.Bool("exists", exists), zap.Error(err))
	}
	return
}

func (l Logger) DeleteKey(ctx context.Context, name, key string) (err error) {
	err = l.LogAble.DeleteKey(ctx, name, key)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("delete key", zap.String("collection", name), zap.String("key", key), zap.Error(err))
	}
	return
}

func (l Logger) ListKeys(ctx context.Context, name string, bounds collection.Bounds, withKeys bool) (list document.Document, err error) {
	list, err = l.LogAble.ListKeys(ctx, name, bounds, withKeys)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("list keys", zap.String("collection", name), zap.Intp("from", bounds.From), zap.Intp("to", bounds.To),
			zap.Bool("with-keys", withKeys), zap.Int("count", list.Len()), zap.Error(err))
	}
	return
}

func (l Logger) Subscribe(ctx context.Context, name string) (subscriber *watch.Subscriber, err error) {
	subscriber, err = l.LogAble.Subscribe(ctx, name)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("subscribe", zap.String("collection", name), zap.Error(err))
	}
	return
}

func (l Logger) Unsubscribe(ctx context.Context, subscriber *watch.Subscriber) {
	l.LogAble.Unsubscribe(ctx, subscriber)

	logger := l.logger()
	if logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.With(traceutil.TraceLogField(ctx))
		logger.Debug("unsubscribe", zap.String("collection", subscriber.Collection()), zap.Uint64("dropped", subscriber.Dropped()))
	}
}

func (l Logger) logger() *zap.Logger {
	if l.LogAble.Logger() != nil {
		return l.LogAble.Logger()
	}
	return zap.NewNop()
}
