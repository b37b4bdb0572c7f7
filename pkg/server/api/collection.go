package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AutoMQ/collection-store/pkg/server/document"
	"github.com/AutoMQ/collection-store/pkg/util/traceutil"
)

func (a *API) createCollection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue(_collectionPath)
	if err := a.s.CreateCollection(r.Context(), name); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeValue(w, r, http.StatusCreated, message{Message: "Collection created successfully", Collection: name})
}

func (a *API) collectionExists(w http.ResponseWriter, r *http.Request) {
	if !a.s.CollectionExists(r.Context(), r.PathValue(_collectionPath)) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *API) dropCollection(w http.ResponseWriter, r *http.Request) {
	if err := a.s.DropCollection(r.Context(), r.PathValue(_collectionPath)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeValue(w, r, http.StatusOK, message{Message: "Collection dropped successfully"})
}

func (a *API) listKeys(w http.ResponseWriter, r *http.Request) {
	bounds, err := parseBounds(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.s.ListKeys(r.Context(), r.PathValue(_collectionPath), bounds, parseWithKeys(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeDocument(w, r, http.StatusOK, list)
}

func (a *API) putKeys(w http.ResponseWriter, r *http.Request) {
	body, release, err := a.readBody(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer release()

	format := document.FormatOf(r.Header.Get("Content-Type"))
	count, err := a.s.PutKeys(r.Context(), r.PathValue(_collectionPath), body, format)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeValue(w, r, http.StatusOK, message{Message: "Items inserted successfully", Count: &count})
}

// subscribe streams the changes of a collection as server-sent events, until the client goes away,
// the collection is dropped, or the server is closed.
// A HEAD request only reports whether the collection can be subscribed to.
func (a *API) subscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		a.collectionExists(w, r)
		return
	}
	ctx := r.Context()
	subscriber, err := a.s.Subscribe(ctx, r.PathValue(_collectionPath))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer a.s.Unsubscribe(ctx, subscriber)

	rc := http.NewResponseController(w)
	// the stream outlives the write timeout of the server
	_ = rc.SetWriteDeadline(time.Time{})

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		a.lg.Warn("failed to flush event stream", traceutil.TraceLogField(ctx), zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-subscriber.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				a.lg.Error("failed to marshal event", traceutil.TraceLogField(ctx), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Operation, data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
