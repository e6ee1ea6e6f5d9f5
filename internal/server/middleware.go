package server

import (
	"bufio"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/capstone-so2/statuspage/internal/logx"
	"github.com/capstone-so2/statuspage/internal/metrics"
)

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (lw *loggingResponseWriter) WriteHeader(status int) {
	lw.status = status
	lw.ResponseWriter.WriteHeader(status)
}

func (lw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := lw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("hijacker not supported")
}

func (lw *loggingResponseWriter) Flush() {
	if f, ok := lw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (lw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lw.ResponseWriter
}

// MiddlewareChain is applied to every route of the status server.
func MiddlewareChain() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chiMiddleware.RequestID,
		requestLogger,
		chiMiddleware.Recoverer,
	}
}

// requestLogger writes one access log line per request and counts it by route
// pattern. Request content is never logged.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		metrics.RecordRequest(route, r.Method, lrw.status)

		lvl := zerolog.GlobalLevel()
		if lvl <= zerolog.DebugLevel {
			logx.Log.Debug().
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("request_id", chiMiddleware.GetReqID(r.Context())).
				Interface("headers", r.Header).
				Int("status", lrw.status).
				Msg("http")
		} else if lvl <= zerolog.InfoLevel {
			logx.Log.Info().
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("request_id", chiMiddleware.GetReqID(r.Context())).
				Int("status", lrw.status).
				Msg("http")
		}
	})
}
