package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fusion-gw/fusion/internal/dispatch"
	fusionmw "github.com/fusion-gw/fusion/internal/middleware"
	"github.com/fusion-gw/fusion/internal/store"
)

// NewRouter builds the gateway's single inbound surface: one wildcard
// GET route under bindPath that hands the request path to the
// Dispatcher, plus a /healthz liveness endpoint. bindPath is the prefix
// configured via API_BIND_PATH; everything after it is the Destination
// path looked up by the Dispatcher (invariant I3).
func NewRouter(d *dispatch.Dispatcher, bindPath string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(fusionmw.NewCORSMiddleware())

	r.Get("/healthz", healthHandler)

	prefix := normalizePrefix(bindPath)
	r.Route(prefix, func(r chi.Router) {
		r.Get("/*", dispatchHandler(d))
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func dispatchHandler(d *dispatch.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := "/" + chi.URLParam(r, "*")

		q, err := store.AcquireConn()
		if err != nil {
			WriteDispatchError(w, dispatch.InternalServerError(err.Error()))
			return
		}

		body, err := d.Handle(r.Context(), q, path, r.Header)
		if err != nil {
			WriteDispatchError(w, err)
			return
		}
		WriteSuccess(w, body)
	}
}

// normalizePrefix turns an arbitrary API_BIND_PATH value into a chi
// mount prefix: always leading-slash, never trailing-slash unless it is
// the root.
func normalizePrefix(bindPath string) string {
	p := bindPath
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		p = "/"
	}
	return p
}
