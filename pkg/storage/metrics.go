package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rumagent_storage_batches_written_total",
		Help: "Batches appended to the durable queue.",
	})
	bytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rumagent_storage_bytes_written_total",
		Help: "Payload bytes appended to the durable queue.",
	})
	batchesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rumagent_storage_batches_read_total",
		Help: "Batch reads served to the upload worker.",
	})
	batchesConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rumagent_storage_batches_consumed_total",
		Help: "Batches permanently removed after delivery or flush.",
	})
	batchesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rumagent_storage_batches_purged_total",
		Help: "Batches dropped unsent by retention.",
	})
)
