package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	_defaultWatchBufferSize = 1024
)

// Watch is the configuration for watch.Hub
type Watch struct {
	// BufferSize is the number of events buffered for each subscriber.
	// Events are dropped for a subscriber whose buffer is full.
	BufferSize int
}

func NewWatch() *Watch {
	return &Watch{}
}

func DefaultWatch() *Watch {
	return &Watch{
		BufferSize: _defaultWatchBufferSize,
	}
}

func (w *Watch) Validate() error {
	if w.BufferSize <= 0 {
		return errors.Errorf("invalid buffer size `%d`", w.BufferSize)
	}
	return nil
}

func watchConfigure(v *viper.Viper, fs *pflag.FlagSet) {
	fs.Int("watch-buffer-size", _defaultWatchBufferSize, "number of events buffered for each subscriber")
	_ = v.BindPFlag("watch.bufferSize", fs.Lookup("watch-buffer-size"))
}
