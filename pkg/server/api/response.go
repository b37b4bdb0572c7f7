package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/AutoMQ/collection-store/pkg/server/document"
	"github.com/AutoMQ/collection-store/pkg/server/model"
	"github.com/AutoMQ/collection-store/pkg/util/traceutil"
)

var (
	errInternal     = errors.New("internal server error")
	errBodyTooLarge = errors.New("request body too large")
)

type message struct {
	Message    string `json:"message" msgpack:"message"`
	Collection string `json:"collection,omitempty" msgpack:"collection,omitempty"`
	Count      *int   `json:"count,omitempty" msgpack:"count,omitempty"`
}

type errorMessage struct {
	Status     int    `json:"status,omitempty" msgpack:"status,omitempty"`
	Error      string `json:"error" msgpack:"error"`
	Collection string `json:"collection,omitempty" msgpack:"collection,omitempty"`
}

// writeDocument writes d in the format accepted by the request.
func (a *API) writeDocument(w http.ResponseWriter, r *http.Request, status int, d document.Document) {
	format := document.FormatOf(r.Header.Get("Accept"))
	body, err := format.Encode(d)
	if err != nil {
		a.writeError(w, r, errors.WithMessage(err, "encode response"))
		return
	}
	a.write(w, r, status, format.ContentType(), body)
}

// writeValue writes v in the format accepted by the request.
func (a *API) writeValue(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	format := document.FormatOf(r.Header.Get("Accept"))
	var body []byte
	var err error
	if format == document.FormatMsgpack {
		body, err = msgpack.Marshal(v)
	} else {
		body, err = json.Marshal(v)
	}
	if err != nil {
		a.lg.Error("failed to marshal response", traceutil.TraceLogField(r.Context()), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	a.write(w, r, status, format.ContentType(), body)
}

func (a *API) write(w http.ResponseWriter, r *http.Request, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		a.lg.Warn("failed to write response", traceutil.TraceLogField(r.Context()), zap.Error(err))
	}
}

// writeError writes the status and the body corresponding to err.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorMessage{Error: err.Error(), Collection: r.PathValue(_collectionPath)}
	switch status {
	case http.StatusBadRequest:
		body.Status = status
	case http.StatusNotFound:
		body.Error = notFoundMessage(err)
	case http.StatusInternalServerError:
		a.lg.Error("internal server error", traceutil.TraceLogField(r.Context()),
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		body.Error = errInternal.Error()
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	a.writeValue(w, r, status, body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrMalformed), errors.Is(err, model.ErrInvalidName), errors.Is(err, model.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrCollectionNotFound), errors.Is(err, model.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrCollectionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func notFoundMessage(err error) string {
	if errors.Is(err, model.ErrCollectionNotFound) {
		return "Collection not found"
	}
	return "Item not found"
}
