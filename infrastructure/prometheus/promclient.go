package promclient

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var OpenOrderBookGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "bsdex_open_order_book",
		Help: "bsdex order book replicas currently maintained",
	},
)

var FramesCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bsdex_frames_total",
		Help: "bsdex inbound frames by decoded kind",
	},
	[]string{"kind"},
)

var DroppedFramesCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "bsdex_dropped_frames_total",
		Help: "bsdex inbound frames dropped as malformed",
	},
)

var EventsCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bsdex_events_total",
		Help: "bsdex normalized events emitted by type",
	},
	[]string{"type"},
)

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(OpenOrderBookGauge)
	reg.MustRegister(FramesCounter)
	reg.MustRegister(DroppedFramesCounter)
	reg.MustRegister(EventsCounter)
	reg.MustRegister(collectors.NewGoCollector())

	return reg
}

// NewServer returns an http server exposing the registry on /metrics.
func NewServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &http.Server{Addr: addr, Handler: mux}
}

func StartPromClientServer(srv *http.Server) {
	logrus.Infof("prometheus server listening at %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Error("prometheus server failed")
	}
}
