package server

import "net/http"

// RouteHandler is a function type for HTTP handlers.
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers.
type MethodRouter map[string]RouteHandler

// RouteByMethod routes requests based on HTTP method.
// HEAD falls back to the GET handler.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok && r.Method == http.MethodHead {
		handler, ok = routes[http.MethodGet]
	}
	if !ok {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handler(w, r)
}

// RouteResourceCollection handles the read + submit pattern.
// GET -> read, POST -> submit.
func RouteResourceCollection(w http.ResponseWriter, r *http.Request, read, submit RouteHandler) {
	routes := make(MethodRouter)
	if read != nil {
		routes[http.MethodGet] = read
	}
	if submit != nil {
		routes[http.MethodPost] = submit
	}
	RouteByMethod(w, r, routes)
}
