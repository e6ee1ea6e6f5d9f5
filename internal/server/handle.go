package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/capstone-so2/statuspage/internal/logx"
	"github.com/capstone-so2/statuspage/internal/metrics"
	"github.com/capstone-so2/statuspage/internal/serverstate"
)

var (
	// ErrAlreadyStarted is returned by Start on a handle that has already
	// bound its socket. A handle is never restarted.
	ErrAlreadyStarted = errors.New("server already started")
	// ErrNotStarted is returned by Wait and Stop before a successful Start.
	ErrNotStarted = errors.New("server not started")
)

// BindError reports that the listening socket could not be established.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Handle owns one HTTP server and its lifecycle:
// stopped -> listening -> draining -> stopped.
type Handle struct {
	addr    string
	srv     *http.Server
	tracker *serverstate.Tracker

	mu   sync.Mutex
	ln   net.Listener
	done chan struct{}
	err  error
}

// NewHandle prepares a server for addr. Nothing is bound until Start.
// A nil tracker selects an in-memory one.
func NewHandle(addr string, h http.Handler, tracker *serverstate.Tracker) *Handle {
	if tracker == nil {
		tracker = serverstate.NewTracker(nil, "")
	}
	tracker.SetStatus(serverstate.StatusStopped)
	return &Handle{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		tracker: tracker,
	}
}

// Start binds the socket and serves in the background. A bind failure is
// returned as *BindError and leaves the handle stopped.
func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln != nil {
		return ErrAlreadyStarted
	}
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return &BindError{Addr: h.addr, Err: err}
	}
	h.ln = ln
	h.done = make(chan struct{})
	h.tracker.SetStatus(serverstate.StatusListening)
	metrics.SetListening(true)

	ev := logx.Log.Info().Str("addr", ln.Addr().String())
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		ev = ev.Int("port", tcp.Port)
	}
	ev.Str("instance_id", h.tracker.InstanceID()).Msg("server listening")

	go h.serve(ln, h.done)
	return nil
}

func (h *Handle) serve(ln net.Listener, done chan struct{}) {
	err := h.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	if err != nil {
		logx.Log.Error().Err(err).Msg("server error")
		h.tracker.SetStatus(serverstate.StatusStopped)
		metrics.SetListening(false)
	}
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(done)
}

// Wait blocks until the server stops serving. It returns nil after Stop.
func (h *Handle) Wait() error {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()
	if done == nil {
		return ErrNotStarted
	}
	<-done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stop drains in-flight requests until ctx expires, then closes the server.
func (h *Handle) Stop(ctx context.Context) error {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()
	if done == nil {
		return ErrNotStarted
	}

	h.tracker.StartDrain()
	logx.Log.Info().Msg("server draining")
	err := h.srv.Shutdown(ctx)
	if err != nil {
		_ = h.srv.Close()
	}
	h.tracker.SetStatus(serverstate.StatusStopped)
	metrics.SetListening(false)

	select {
	case <-done:
	case <-ctx.Done():
	}
	logx.Log.Info().Msg("server stopped")
	return err
}

// Addr returns the bound address, or nil before Start.
func (h *Handle) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

// Status returns the current lifecycle state.
func (h *Handle) Status() string {
	return h.tracker.Status()
}
