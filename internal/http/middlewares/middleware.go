// Package middlewares contiene los middlewares HTTP (request id, recover, logging, métricas, admin).
package middlewares

import "net/http"

// Middleware envuelve un handler.
type Middleware func(http.Handler) http.Handler

// Chain aplica mws en orden: el primero queda más afuera.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
