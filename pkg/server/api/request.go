package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/pkg/errors"

	"github.com/AutoMQ/collection-store/pkg/server/collection"
	"github.com/AutoMQ/collection-store/pkg/server/model"
)

// readBody reads the request body, at most Param.MaxBodySize bytes.
// The returned release function should be called once the body is no longer used.
func (a *API) readBody(w http.ResponseWriter, r *http.Request) (body []byte, release func(), err error) {
	limit := a.param.MaxBodySize
	if r.ContentLength > limit {
		return nil, nil, errors.Wrapf(errBodyTooLarge, "content length %d exceeds %d", r.ContentLength, limit)
	}
	reader := http.MaxBytesReader(w, r.Body, limit)

	if r.ContentLength >= 0 {
		body = mcache.Malloc(int(r.ContentLength))
		if _, err := io.ReadFull(reader, body); err != nil {
			mcache.Free(body)
			return nil, nil, errors.Wrapf(model.ErrMalformed, "read request body: %v", err)
		}
		return body, func() { mcache.Free(body) }, nil
	}

	body, err = io.ReadAll(reader)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, nil, errors.Wrapf(errBodyTooLarge, "body exceeds %d", limit)
		}
		return nil, nil, errors.Wrapf(model.ErrMalformed, "read request body: %v", err)
	}
	return body, func() {}, nil
}

// parseBounds parses the "from" and "to" query parameters. Both should be non-negative integers if present.
func parseBounds(r *http.Request) (collection.Bounds, error) {
	query := r.URL.Query()
	var bounds collection.Bounds
	for _, p := range []struct {
		name  string
		bound **int
	}{
		{name: "from", bound: &bounds.From},
		{name: "to", bound: &bounds.To},
	} {
		s := query.Get(p.name)
		if s == "" {
			continue
		}
		i, err := strconv.Atoi(s)
		if err != nil || i < 0 {
			return collection.Bounds{}, errors.Wrapf(model.ErrInvalidRange, "%s should be a non-negative integer, got %q", p.name, s)
		}
		*p.bound = &i
	}
	return bounds, nil
}

// parseWithKeys parses the "keys" query parameter. An invalid value is treated as false.
func parseWithKeys(r *http.Request) bool {
	withKeys, err := strconv.ParseBool(r.URL.Query().Get("keys"))
	return err == nil && withKeys
}
