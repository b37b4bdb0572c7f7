package api

import (
	"net/http"

	"github.com/AutoMQ/collection-store/pkg/server/document"
)

func (a *API) putKey(w http.ResponseWriter, r *http.Request) {
	body, release, err := a.readBody(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer release()

	format := document.FormatOf(r.Header.Get("Content-Type"))
	value, err := a.s.PutKey(r.Context(), r.PathValue(_collectionPath), r.PathValue(_keyPath), body, format)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeDocument(w, r, http.StatusOK, value)
}

func (a *API) getKey(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		a.keyExists(w, r)
		return
	}
	value, err := a.s.GetKey(r.Context(), r.PathValue(_collectionPath), r.PathValue(_keyPath))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeDocument(w, r, http.StatusOK, value)
}

func (a *API) keyExists(w http.ResponseWriter, r *http.Request) {
	exists, err := a.s.KeyExists(r.Context(), r.PathValue(_collectionPath), r.PathValue(_keyPath))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *API) deleteKey(w http.ResponseWriter, r *http.Request) {
	if err := a.s.DeleteKey(r.Context(), r.PathValue(_collectionPath), r.PathValue(_keyPath)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeValue(w, r, http.StatusOK, message{Message: "Item deleted successfully"})
}
