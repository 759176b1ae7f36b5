package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flavord_fetch_total",
		Help: "Upstream fetches by entity and outcome.",
	}, []string{"entity", "outcome"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flavord_fetch_retries_total",
		Help: "Failed fetch attempts that were retried, by entity.",
	}, []string{"entity"})
)
