package upload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// tick outcome label values
const (
	tickBlocked   = "blocked"
	tickEmpty     = "empty"
	tickRetried   = "retried"
	tickDelivered = "delivered"
)

var (
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rumagent_upload_ticks_total",
		Help: "Upload worker ticks by outcome.",
	}, []string{"outcome"})

	flushedBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rumagent_upload_flushed_batches_total",
		Help: "Batches drained by synchronous flush.",
	})
)
