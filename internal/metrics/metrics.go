package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecipientsLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "recipients_loaded_total", Help: "Recipients imported from delimited files"},
	)
	ReserveUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reserve_updates_total", Help: "Reserve subscription ticks processed"},
		[]string{"asset"},
	)
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "swaps_total", Help: "Swap-and-send submissions"},
		[]string{"result"},
	)
	TransferBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "transfer_batches_total", Help: "Atomic transfer batch submissions"},
		[]string{"result"},
	)
	RetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "retries_total", Help: "Single-recipient retry attempts"},
	)
)

func init() {
	prometheus.MustRegister(RecipientsLoaded, ReserveUpdates, SwapsTotal, TransferBatches, RetriesTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
