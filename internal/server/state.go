package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/capstone-so2/statuspage/internal/logx"
	"github.com/capstone-so2/statuspage/internal/serverstate"
)

// hostInfo is swapped in tests.
var hostInfo = host.InfoWithContext

const hostInfoTimeout = 2 * time.Second

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	SHA     string
	Date    string
}

// HostFacts describes the machine serving the page.
type HostFacts struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

// StatePayload is the JSON body of /api/state and of each stream message.
type StatePayload struct {
	serverstate.State
	Version    string      `json:"version"`
	Components []Component `json:"components"`
	Host       *HostFacts  `json:"host,omitempty"`
}

type stateSource struct {
	tracker *serverstate.Tracker
	build   BuildInfo
}

func (s *stateSource) snapshot(ctx context.Context) StatePayload {
	p := StatePayload{
		State:      s.tracker.Snapshot(),
		Version:    s.build.Version,
		Components: Components(),
	}
	ctx, cancel := context.WithTimeout(ctx, hostInfoTimeout)
	defer cancel()
	info, err := hostInfo(ctx)
	if err != nil || info == nil {
		logx.Log.Warn().Err(err).Msg("read host facts")
		return p
	}
	p.Host = &HostFacts{
		Hostname:      info.Hostname,
		OS:            info.OS,
		Platform:      info.Platform,
		UptimeSeconds: info.Uptime,
	}
	return p
}

// HealthHandler reports liveness. It fails while the server drains so load
// balancers stop routing to it.
func HealthHandler(tracker *serverstate.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if tracker.IsDraining() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("draining"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// StateHandler returns the lifecycle state, build version, described
// components and host facts as JSON.
func StateHandler(src *stateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := json.Marshal(src.snapshot(r.Context()))
		if err != nil {
			logx.Log.Error().Err(err).Msg("encode state")
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	}
}
