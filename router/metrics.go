package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirrors the teacher's counter/gauge-pair idiom for tracking
// connection activity (hub/hub_irc.go's cntConnIRC/cntConnIRCOpen: a
// monotonic counter bumped on every accept plus a gauge incremented on
// open and decremented on close via defer), generalized from IRC
// connections to frankenrouter's client and upstream sessions and
// wired through prometheus/client_golang instead of expvar, since the
// teacher's own cmd/go-hub/cmd/serve.go already stands up a
// promhttp.Handler() for the metrics surface.
type Metrics struct {
	ClientsAccepted  prometheus.Counter
	ClientsOpen      prometheus.Gauge
	UpstreamReconnects prometheus.Counter
	UpstreamConnected  prometheus.Gauge

	LinesIn  prometheus.Counter
	LinesOut prometheus.Counter

	FilteredElevation      prometheus.Counter
	FilteredTraffic        prometheus.Counter
	FilteredFlightControls prometheus.Counter

	QueueOverflowWarnings prometheus.Counter
	TrafficLogDropped     prometheus.Counter

	FRDPPings    prometheus.Counter
	FRDPPongs    prometheus.Counter
	FRDPVersionMismatch prometheus.Counter
}

// NewMetrics registers every collector against reg. Callers normally
// pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests to avoid duplicate-registration
// panics across test cases.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ClientsAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_clients_accepted_total",
			Help: "Total client connections accepted.",
		}),
		ClientsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "frankenrouter_clients_open",
			Help: "Currently open client connections.",
		}),
		UpstreamReconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_upstream_reconnects_total",
			Help: "Total upstream (re)connect attempts.",
		}),
		UpstreamConnected: f.NewGauge(prometheus.GaugeOpts{
			Name: "frankenrouter_upstream_connected",
			Help: "1 if the upstream session is LIVE, else 0.",
		}),
		LinesIn: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_lines_in_total",
			Help: "Total protocol lines received from any source.",
		}),
		LinesOut: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_lines_out_total",
			Help: "Total protocol lines written to any destination.",
		}),
		FilteredElevation: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_filtered_elevation_total",
			Help: "Upstream updates dropped by the elevation filter.",
		}),
		FilteredTraffic: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_filtered_traffic_total",
			Help: "Upstream updates dropped by the traffic filter.",
		}),
		FilteredFlightControls: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_filtered_flight_controls_total",
			Help: "Upstream updates dropped by the flight-controls filter.",
		}),
		QueueOverflowWarnings: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_queue_high_water_total",
			Help: "Messages enqueued while a client outbound queue was above the high-water mark.",
		}),
		TrafficLogDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_traffic_log_dropped_total",
			Help: "Traffic log entries dropped because the log queue was full.",
		}),
		FRDPPings: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_frdp_pings_total",
			Help: "FRDP PING messages sent.",
		}),
		FRDPPongs: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_frdp_pongs_total",
			Help: "FRDP PONG messages received.",
		}),
		FRDPVersionMismatch: f.NewCounter(prometheus.CounterOpts{
			Name: "frankenrouter_frdp_version_mismatch_total",
			Help: "FRDP peers seen advertising a different protocol version.",
		}),
	}
}
