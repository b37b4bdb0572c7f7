package config

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	_defaultHTTPAddr                  = "0.0.0.0:5050"
	_defaultHTTPReadTimeout           = 30 * time.Second
	_defaultHTTPWriteTimeout          = 30 * time.Second
	_defaultHTTPIdleTimeout           = 2 * time.Minute
	_defaultHTTPShutdownTimeout       = 5 * time.Second
	_defaultHTTPMaxBodySize     int64 = 50 << 20
)

// HTTP is the configuration for the http server
type HTTP struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ShutdownTimeout bounds the graceful shutdown. Connections still active after it are closed.
	ShutdownTimeout time.Duration
	// MaxBodySize is the maximum size in bytes of a request body.
	MaxBodySize int64
}

func NewHTTP() *HTTP {
	return &HTTP{}
}

func DefaultHTTP() *HTTP {
	return &HTTP{
		Addr:            _defaultHTTPAddr,
		ReadTimeout:     _defaultHTTPReadTimeout,
		WriteTimeout:    _defaultHTTPWriteTimeout,
		IdleTimeout:     _defaultHTTPIdleTimeout,
		ShutdownTimeout: _defaultHTTPShutdownTimeout,
		MaxBodySize:     _defaultHTTPMaxBodySize,
	}
}

func (h *HTTP) Validate() error {
	if _, _, err := net.SplitHostPort(h.Addr); err != nil {
		return errors.Wrapf(err, "invalid address `%s`", h.Addr)
	}
	if h.ReadTimeout < 0 {
		return errors.Errorf("invalid read timeout `%s`", h.ReadTimeout)
	}
	if h.WriteTimeout < 0 {
		return errors.Errorf("invalid write timeout `%s`", h.WriteTimeout)
	}
	if h.IdleTimeout < 0 {
		return errors.Errorf("invalid idle timeout `%s`", h.IdleTimeout)
	}
	if h.ShutdownTimeout <= 0 {
		return errors.Errorf("invalid shutdown timeout `%s`", h.ShutdownTimeout)
	}
	if h.MaxBodySize <= 0 {
		return errors.Errorf("invalid max body size `%d`", h.MaxBodySize)
	}
	return nil
}

func httpConfigure(v *viper.Viper, fs *pflag.FlagSet) {
	fs.String("http-addr", _defaultHTTPAddr, "the address the http server listens on")
	fs.Duration("http-read-timeout", _defaultHTTPReadTimeout, "maximum duration for reading an entire request, 0 means no timeout")
	fs.Duration("http-write-timeout", _defaultHTTPWriteTimeout, "maximum duration before timing out writes of a response, 0 means no timeout")
	fs.Duration("http-idle-timeout", _defaultHTTPIdleTimeout, "maximum amount of time to wait for the next request on a keep-alive connection")
	fs.Duration("http-shutdown-timeout", _defaultHTTPShutdownTimeout, "maximum duration of a graceful shutdown")
	fs.Int64("http-max-body-size", _defaultHTTPMaxBodySize, "maximum size in bytes of a request body")
	_ = v.BindPFlag("http.addr", fs.Lookup("http-addr"))
	_ = v.BindPFlag("http.readTimeout", fs.Lookup("http-read-timeout"))
	_ = v.BindPFlag("http.writeTimeout", fs.Lookup("http-write-timeout"))
	_ = v.BindPFlag("http.idleTimeout", fs.Lookup("http-idle-timeout"))
	_ = v.BindPFlag("http.shutdownTimeout", fs.Lookup("http-shutdown-timeout"))
	_ = v.BindPFlag("http.maxBodySize", fs.Lookup("http-max-body-size"))
}
