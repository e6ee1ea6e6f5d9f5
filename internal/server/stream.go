package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/capstone-so2/statuspage/internal/logx"
)

const defaultStreamInterval = 5 * time.Second

// StateStreamHandler upgrades to a WebSocket and pushes the state payload
// immediately and then every interval. The stream ends when the client goes
// away or the server starts draining. Cross-origin clients are accepted from
// the same origins the CORS middleware allows.
func StateStreamHandler(src *stateSource, interval time.Duration, allowedOrigins []string) http.HandlerFunc {
	opts := &websocket.AcceptOptions{OriginPatterns: originPatterns(allowedOrigins)}
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, opts)
		if err != nil {
			logx.Log.Debug().Err(err).Msg("state stream accept")
			return
		}
		defer func() { _ = c.CloseNow() }()

		// The client never sends; CloseRead handles control frames and cancels
		// ctx once the peer closes.
		ctx := c.CloseRead(r.Context())
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			p := src.snapshot(ctx)
			if err := wsjson.Write(ctx, c, p); err != nil {
				logx.Log.Debug().Err(err).Msg("state stream write")
				return
			}
			if p.Draining {
				_ = c.Close(websocket.StatusGoingAway, "server draining")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}
}

// originPatterns turns CORS origins such as "https://app.example.com" into
// websocket.Accept patterns. Patterns with a scheme match scheme and host.
func originPatterns(origins []string) []string {
	var patterns []string
	for _, o := range origins {
		if o = strings.TrimRight(o, "/"); o != "" {
			patterns = append(patterns, o)
		}
	}
	return patterns
}
