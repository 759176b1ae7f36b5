package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flavord_cache_requests_total",
		Help: "Cache reads by key prefix and result (hit or miss).",
	}, []string{"prefix", "result"})

	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flavord_cache_writes_total",
		Help: "Cache writes by key prefix and result (success or failure).",
	}, []string{"prefix", "result"})

	sweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flavord_cache_swept_total",
		Help: "Expired entries removed by the periodic sweep.",
	})
)
