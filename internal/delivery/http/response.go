// Package http adapts the dispatcher's results to HTTP responses per the
// status mapping in SPEC_FULL.md §7: NotFound and Unauthorized carry no
// body (the client learns nothing about why), BadRequest and
// InternalServerError carry a plain-text diagnostic, and success carries
// the aggregated JSON body verbatim.
package http

import (
	"net/http"

	"github.com/fusion-gw/fusion/internal/dispatch"
)

// WriteSuccess writes the dispatcher's aggregated (and possibly
// filtered) JSON body with a 200 status.
func WriteSuccess(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// WriteDispatchError maps a dispatch.Error to its HTTP response. If err
// is not a *dispatch.Error, it is treated as an InternalServerError.
func WriteDispatchError(w http.ResponseWriter, err error) {
	dispatchErr, ok := err.(*dispatch.Error)
	if !ok {
		dispatchErr = dispatch.InternalServerError(err.Error())
	}

	status := dispatchErr.Kind.HTTPStatus()
	switch dispatchErr.Kind {
	case dispatch.KindNotFound, dispatch.KindUnauthorized:
		w.WriteHeader(status)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(dispatchErr.Message))
	}
}
