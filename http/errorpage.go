package http

import (
	"net/http"
)

// ReasonNoRoute and ReasonMethodNotAllowed answer requests that match no route.
const (
	ReasonNoRoute          = "no_route"
	ReasonMethodNotAllowed = "method_not_allowed"
)

func writeNoRoute(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, ReasonNoRoute, "No route for "+r.URL.Path)
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, ReasonMethodNotAllowed, r.Method+" is not supported on "+r.URL.Path)
}

func fallbacks(r interface {
	NotFound(http.HandlerFunc)
	MethodNotAllowed(http.HandlerFunc)
}) {
	r.NotFound(writeNoRoute)
	r.MethodNotAllowed(writeMethodNotAllowed)
}
