package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statuspage_build_info",
			Help: "Build information for the status server",
		},
		[]string{"date", "sha", "version"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuspage_http_requests_total",
			Help: "HTTP requests handled, by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	pageViews = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "statuspage_page_views_total",
			Help: "Number of times the status page was served",
		},
	)

	listening = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuspage_server_listening",
			Help: "1 while the status server is accepting connections",
		},
	)
)

// Register registers the status server collectors with r.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, httpRequests, pageViews, listening)
}

// SetBuildInfo sets the build info metric.
func SetBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// RecordRequest counts one handled request. An empty route means no route
// matched.
func RecordRequest(route, method string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// PageView counts one status page response.
func PageView() { pageViews.Inc() }

// SetListening flips the listening gauge.
func SetListening(up bool) {
	if up {
		listening.Set(1)
		return
	}
	listening.Set(0)
}
