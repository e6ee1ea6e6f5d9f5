package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/capstone-so2/statuspage/internal/config"
	"github.com/capstone-so2/statuspage/internal/serverstate"
)

func startHandle(t *testing.T, addr string) (*Handle, *serverstate.Tracker) {
	t.Helper()
	tracker := serverstate.NewTracker(nil, "")
	h := NewHandle(addr, newTestHandler(t, config.ServerConfig{Port: 0}), tracker)
	if err := h.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Stop(ctx)
	})
	return h, tracker
}

func TestHandle_EndToEnd(t *testing.T) {
	h, tracker := startHandle(t, "127.0.0.1:0")
	if got := tracker.Status(); got != serverstate.StatusListening {
		t.Fatalf("status = %q; want %q", got, serverstate.StatusListening)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/", h.Addr()))
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html, got %q", ct)
	}
	if !strings.Contains(string(body), "Status: Operacional") {
		t.Fatalf("expected operational status, got %q", body)
	}
}

func TestHandle_IPv6BindHost(t *testing.T) {
	ln, err := net.Listen("tcp", "[::1]:0")
	if err != nil {
		t.Skipf("ipv6 loopback unavailable: %v", err)
	}
	ln.Close()

	cfg := config.ServerConfig{BindHost: "::1", Port: 0}
	h, _ := startHandle(t, cfg.ListenAddr())

	resp, err := http.Get(fmt.Sprintf("http://%s/", h.Addr()))
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHandle_BindError(t *testing.T) {
	first, _ := startHandle(t, "127.0.0.1:0")
	addr := first.Addr().String()

	tracker := serverstate.NewTracker(nil, "")
	second := NewHandle(addr, newTestHandler(t, config.ServerConfig{Port: 0}), tracker)
	err := second.Start()
	if err == nil {
		t.Fatalf("expected bind error on %s", addr)
	}
	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("expected *BindError, got %T: %v", err, err)
	}
	if bindErr.Addr != addr {
		t.Fatalf("bind error addr = %q; want %q", bindErr.Addr, addr)
	}
	if !errors.Is(err, syscall.EADDRINUSE) {
		t.Fatalf("expected EADDRINUSE, got %v", err)
	}
	if got := second.Status(); got != serverstate.StatusStopped {
		t.Fatalf("status after failed bind = %q; want %q", got, serverstate.StatusStopped)
	}
	if second.Addr() != nil {
		t.Fatalf("failed handle reports address %v", second.Addr())
	}
	if err := second.Wait(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Wait after failed bind = %v; want ErrNotStarted", err)
	}
}

func TestHandle_BindErrorWhenPortTakenByOtherListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	h := NewHandle(ln.Addr().String(), http.NotFoundHandler(), nil)
	var bindErr *BindError
	if err := h.Start(); !errors.As(err, &bindErr) {
		t.Fatalf("expected *BindError, got %v", err)
	}
}

func TestHandle_StartTwice(t *testing.T) {
	h, _ := startHandle(t, "127.0.0.1:0")
	if err := h.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start = %v; want ErrAlreadyStarted", err)
	}
}

func TestHandle_StopBeforeStart(t *testing.T) {
	h := NewHandle("127.0.0.1:0", http.NotFoundHandler(), nil)
	if err := h.Stop(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Stop before Start = %v; want ErrNotStarted", err)
	}
}

func TestHandle_StopAndWait(t *testing.T) {
	tracker := serverstate.NewTracker(nil, "")
	h := NewHandle("127.0.0.1:0", http.NotFoundHandler(), tracker)
	if err := h.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := h.Addr().String()

	waitErr := make(chan error, 1)
	go func() { waitErr <- h.Wait() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-waitErr:
		if err != nil {
			t.Fatalf("Wait after Stop = %v; want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Wait did not return after Stop")
	}
	if got := tracker.Status(); got != serverstate.StatusStopped {
		t.Fatalf("status after Stop = %q; want %q", got, serverstate.StatusStopped)
	}
	if _, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		t.Fatalf("expected connection refused after Stop")
	}
	if err := h.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("restart = %v; want ErrAlreadyStarted", err)
	}
}
