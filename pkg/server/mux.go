package server

import (
	"net/http"
)

var default_mux = http.NewServeMux()

// Register registers a handler served by all servers
// created with default handlers.
func Register(pattern string, handler http.Handler) {
	default_mux.Handle(pattern, handler)
}
