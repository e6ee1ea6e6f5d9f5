package server

import (
	_ "embed"
	"net/http"

	"github.com/capstone-so2/statuspage/internal/metrics"
)

//go:embed status.html
var statusHTML []byte

// StatusPageHandler serves the embedded status page. The body never changes
// between requests.
func StatusPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(statusHTML)
		metrics.PageView()
	}
}
