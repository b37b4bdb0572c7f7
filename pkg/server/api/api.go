// Package api serves the store over HTTP.
package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AutoMQ/collection-store/pkg/server/handler"
	"github.com/AutoMQ/collection-store/pkg/util/logutil"
	"github.com/AutoMQ/collection-store/pkg/util/traceutil"
)

const (
	_collectionPath = "collection"
	_keyPath        = "key"
)

// Param is the parameters of the API.
type Param struct {
	// Name is the name of the server shown in the status.
	Name string
	// MaxBodySize is the maximum size of a request body in bytes.
	MaxBodySize int64
}

// API translates HTTP requests into calls to a handler.Service.
type API struct {
	s         handler.Service
	param     Param
	startTime time.Time
	lg        *zap.Logger
}

// New creates an API serving s.
func New(s handler.Service, param Param, logger *zap.Logger) *API {
	return &API{
		s:         s,
		param:     param,
		startTime: time.Now(),
		lg:        logger,
	}
}

// Handler returns the http.Handler of the API.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/{collection}", a.createCollection)
	mux.HandleFunc("PUT /api/{collection}", a.createCollection)
	mux.HandleFunc("HEAD /api/{collection}", a.collectionExists)
	mux.HandleFunc("DELETE /api/{collection}", a.dropCollection)
	mux.HandleFunc("GET /api/{collection}", a.listKeys)
	mux.HandleFunc("PUT /api/{collection}/_batch", a.putKeys)
	mux.HandleFunc("GET /api/{collection}/_subscribe", a.subscribe)

	// GET patterns also serve HEAD, see getKey and subscribe
	mux.HandleFunc("POST /api/{collection}/{key}", a.putKey)
	mux.HandleFunc("PUT /api/{collection}/{key}", a.putKey)
	mux.HandleFunc("GET /api/{collection}/{key}", a.getKey)
	mux.HandleFunc("DELETE /api/{collection}/{key}", a.deleteKey)

	mux.HandleFunc("GET /status", a.status)

	return a.withTrace(mux)
}

// withTrace sets the trace id of the request, logs the request, and recovers panics in next.
func (a *API) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceutil.TraceIDHeader)
		if traceID == "" {
			traceID = traceutil.NewTraceID()
		}
		ctx := traceutil.SetTraceID(r.Context(), traceID)
		r = r.WithContext(ctx)
		w.Header().Set(traceutil.TraceIDHeader, traceID)

		rw := &responseWriter{ResponseWriter: w}
		start := time.Now()
		logger := a.lg.With(traceutil.TraceLogField(ctx))
		defer func() {
			if logger.Core().Enabled(zap.DebugLevel) {
				logger.Debug("http request", zap.String("method", r.Method), zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr), zap.Int("status", rw.status), zap.Duration("cost", time.Since(start)))
			}
		}()
		defer logutil.RecoverPanic(logger, func(interface{}) {
			if !rw.wroteHeader {
				a.writeError(rw, r, errInternal)
			}
		})

		next.ServeHTTP(rw, r)
	})
}

// responseWriter records the status code written.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap is used by http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
