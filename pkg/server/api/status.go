package api

import (
	"net/http"
	"time"

	"github.com/AutoMQ/collection-store/pkg/util/typeutil"
)

type status struct {
	Name        string            `json:"name" msgpack:"name"`
	Uptime      typeutil.Duration `json:"uptime" msgpack:"uptime"`
	Collections int               `json:"collections" msgpack:"collections"`
	Subscribers int               `json:"subscribers" msgpack:"subscribers"`
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	stats := a.s.Stats(r.Context())
	a.writeValue(w, r, http.StatusOK, status{
		Name:        a.param.Name,
		Uptime:      typeutil.Duration{Duration: time.Since(a.startTime).Truncate(time.Second)},
		Collections: stats.Collections,
		Subscribers: stats.Subscribers,
	})
}
