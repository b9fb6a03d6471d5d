package adminhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// appResponseWriter wraps http.ResponseWriter to make the final status code
// observable to middleware running after the handler returns.
type appResponseWriter struct {
	middleware.WrapResponseWriter
}

func newAppResponseWriter(w http.ResponseWriter, protoMajor int) *appResponseWriter {
	return &appResponseWriter{
		WrapResponseWriter: middleware.NewWrapResponseWriter(w, protoMajor),
	}
}
